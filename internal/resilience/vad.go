package resilience

import (
	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// VADFailover is a [vad.Engine] that opens sessions on the first backend able
// to serve the requested configuration.
type VADFailover struct {
	*Failover[vad.Engine]
}

var _ vad.Engine = (*VADFailover)(nil)

// NewVADFailover returns a failover engine preferring primary.
func NewVADFailover(name string, primary vad.Engine, cfg BreakerConfig) *VADFailover {
	return &VADFailover{Failover: NewFailover(name, primary, cfg)}
}

// NewSession validates cfg once and then asks each backend in turn. An invalid
// configuration is returned as is; no backend could serve it.
func (v *VADFailover) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if err := vad.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return Call(v.Failover, func(e vad.Engine) (vad.SessionHandle, error) {
		return e.NewSession(cfg)
	})
}
