package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/thesyncim/playground-e2e/pkg/playground"
)

// Driver backends.
const (
	BackendRod      = "rod"
	BackendChromedp = "chromedp"
)

// NewDriver launches a browser with the backend named in cfg.
func NewDriver(cfg BrowserConfig) (playground.Driver, error) {
	switch cfg.Backend {
	case "", BackendRod:
		c, err := NewBrowserClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendChromedp:
		c, err := NewChromedpClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q", cfg.Backend)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
