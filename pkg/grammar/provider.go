package grammar

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/lexcite/pkg/logging"
)

// Provider holds the current grammar and replaces it when its directory
// changes. Readers always see a complete grammar: a failed reload keeps
// the previous one.
type Provider struct {
	mu       sync.RWMutex
	current  *Grammar
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(g *Grammar)
	logger   logging.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger used for reload failures.
func WithLogger(l logging.Logger) ProviderOption {
	return func(p *Provider) { p.logger = logging.OrNop(l) }
}

// WithOnChange sets a callback invoked after every successful reload.
func WithOnChange(fn func(g *Grammar)) ProviderOption {
	return func(p *Provider) { p.onChange = fn }
}

// NewProvider returns a provider serving g. It has no directory, so Reload
// and Watch fail.
func NewProvider(g *Grammar, opts ...ProviderOption) *Provider {
	p := &Provider{current: g, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDirectoryProvider loads the grammar in dir and returns a provider that
// can reload it.
func NewDirectoryProvider(dir string, opts ...ProviderOption) (*Provider, error) {
	g, err := LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	p := NewProvider(g, opts...)
	p.dir = dir
	return p, nil
}

// Grammar returns the current grammar.
func (p *Provider) Grammar() *Grammar {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Reload rebuilds the grammar from the configured directory.
func (p *Provider) Reload() error {
	if p.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	g, err := LoadDirectory(p.dir)
	if err != nil {
		return err
	}

	p.mu.Lock()
	previous := p.current
	p.current = g
	p.mu.Unlock()

	p.logger.Info("grammar reloaded",
		logging.String("dir", p.dir),
		logging.String("version", g.Version),
		logging.Int("rules", len(g.Rules)))

	if p.onChange != nil && (previous == nil || previous.Fingerprint != g.Fingerprint || previous.Version != g.Version) {
		p.onChange(g)
	}
	return nil
}

// Watch starts watching the grammar directory and reloads on any change to
// a YAML file. Calling it again replaces the running watcher.
func (p *Provider) Watch() error {
	if p.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}
	p.StopWatch()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	p.watcher = watcher
	p.stopChan = make(chan struct{})

	go p.watchLoop(watcher, p.stopChan)

	if err := watcher.Add(p.dir); err != nil {
		p.StopWatch()
		return fmt.Errorf("watching directory %s: %w", p.dir, err)
	}

	return nil
}

func (p *Provider) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := p.Reload(); err != nil {
				p.logger.Warn("grammar reload failed, keeping previous grammar",
					logging.String("file", event.Name),
					logging.Err(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("grammar watcher error", logging.Err(err))
		}
	}
}

// StopWatch stops watching the grammar directory.
func (p *Provider) StopWatch() {
	if p.stopChan != nil {
		close(p.stopChan)
		p.stopChan = nil
	}
	if p.watcher != nil {
		p.watcher.Close()
		p.watcher = nil
	}
}
