package view

import "errors"

var ErrTemplateNotFound error = errors.New("template not found")
