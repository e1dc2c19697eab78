package repository

import "errors"

// ErrSettingsNotFound indicates no settings record has been saved yet
var ErrSettingsNotFound = errors.New("settings record not found")
