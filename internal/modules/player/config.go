package player

// Config holds the player module configuration.
type Config struct {
	NodeAddress  string `env:"NODE_ADDRESS,notEmpty"`
	NodePassword string `env:"NODE_PASSWORD,notEmpty"`
	NodeSecure   bool   `env:"NODE_SECURE" envDefault:"false"`

	// SearchPrefix tags free-text play queries for the node's search
	// provider.
	SearchPrefix string `env:"SEARCH_PREFIX" envDefault:"ytmsearch"`
}
