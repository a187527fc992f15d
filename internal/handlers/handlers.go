package handlers

import (
	"time"

	"image-browser/internal/browser"
	"image-browser/internal/startup"
)

type Handlers struct {
	browser   *browser.Browser
	config    *startup.Config
	startTime time.Time
}

func New(b *browser.Browser, config *startup.Config) *Handlers {
	return &Handlers{
		browser:   b,
		config:    config,
		startTime: time.Now(),
	}
}
