// Package di wires together the long-lived resources the CLI and the
// HTTP server share: a bookshelf backed by the configured cache size,
// and the API server that exposes it.
package di

import (
	"github.com/ssargent/beluga/pkg/api"
	"github.com/ssargent/beluga/pkg/bookshelf"
	"github.com/ssargent/beluga/pkg/config"
)

// Container holds application-wide factories.
type Container struct {
	bookshelfFactory BookshelfFactory
	serverFactory    ServerFactory
}

// BookshelfFactory creates a Bookshelf from the resolved configuration.
type BookshelfFactory interface {
	CreateBookshelf(cfg *config.Config) *bookshelf.Bookshelf
}

// ServerFactory starts the HTTP server over a Bookshelf.
type ServerFactory interface {
	StartServer(shelf *bookshelf.Bookshelf, serverConfig api.ServerConfig) error
}

// NewContainer returns a Container wired with the default factories.
func NewContainer() *Container {
	return &Container{
		bookshelfFactory: defaultBookshelfFactory{},
		serverFactory:    defaultServerFactory{},
	}
}

// GetBookshelfFactory returns the bookshelf factory.
func (c *Container) GetBookshelfFactory() BookshelfFactory {
	return c.bookshelfFactory
}

// GetServerFactory returns the server factory.
func (c *Container) GetServerFactory() ServerFactory {
	return c.serverFactory
}

// SetBookshelfFactory allows overriding the bookshelf factory (tests).
func (c *Container) SetBookshelfFactory(f BookshelfFactory) {
	c.bookshelfFactory = f
}

// SetServerFactory allows overriding the server factory (tests).
func (c *Container) SetServerFactory(f ServerFactory) {
	c.serverFactory = f
}

type defaultBookshelfFactory struct{}

func (defaultBookshelfFactory) CreateBookshelf(cfg *config.Config) *bookshelf.Bookshelf {
	return bookshelf.New(cfg.Cache.CapacityBytes)
}

type defaultServerFactory struct{}

func (defaultServerFactory) StartServer(shelf *bookshelf.Bookshelf, serverConfig api.ServerConfig) error {
	return api.StartServer(shelf, serverConfig)
}
