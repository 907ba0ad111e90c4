package browser

import (
	"fmt"

	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
)

// New returns the driver selected by cfg.Driver.
func New(cfg config.BrowserConfig, logger *common.Logger) (Driver, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	switch cfg.Driver {
	case config.DriverChromedp, "":
		return NewChromedpDriver(cfg, logger), nil
	case config.DriverPlaywright:
		if cfg.RemoteURL != "" {
			return nil, fmt.Errorf("browser driver %s does not support remote_url", cfg.Driver)
		}
		return NewPlaywrightDriver(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported browser driver: %s", cfg.Driver)
	}
}
