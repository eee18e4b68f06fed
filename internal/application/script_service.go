package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ScriptService serves the client-side script injected into Shopify
// storefronts. The bundle is assembled from disk once, lazily, behind a
// single-flight gate so concurrent first requests do not duplicate the work.
// With developing set, the cache is bypassed and every request reassembles,
// which makes script edits visible without a restart.
type ScriptService struct {
	dir        string
	files      []string
	appURL     string
	developing bool
	logger     zerolog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	bundle  string
	builtAt time.Time
}

// DefaultScriptFiles are the bundle parts, in load order: the payment modal
// loader first, then the Shopify checkout hook.
var DefaultScriptFiles = []string{"ledgerpay.js", "ledgerpay-shopify.js"}

// NewScriptService creates a script service reading the given files from dir.
func NewScriptService(dir string, files []string, appURL string, developing bool, logger zerolog.Logger) *ScriptService {
	return &ScriptService{
		dir:        dir,
		files:      files,
		appURL:     appURL,
		developing: developing,
		logger:     logger,
	}
}

// ScriptFor returns the assembled script bound to one store: the shared
// bundle prefixed with the server URL and store id the storefront hook needs.
func (s *ScriptService) ScriptFor(storeID string) (string, error) {
	bundle, err := s.cachedBundle()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("var LEDGERPAY_URL = %q; var STORE_ID = %q;\n%s", s.appURL, storeID, bundle), nil
}

// BuiltAt reports when the cached bundle was assembled. The zero time means
// no bundle has been assembled yet.
func (s *ScriptService) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

// Invalidate drops the cached bundle so the next request reassembles it.
func (s *ScriptService) Invalidate() {
	s.mu.Lock()
	s.bundle = ""
	s.builtAt = time.Time{}
	s.mu.Unlock()
}

func (s *ScriptService) cachedBundle() (string, error) {
	if !s.developing {
		s.mu.RLock()
		bundle := s.bundle
		s.mu.RUnlock()
		if bundle != "" {
			return bundle, nil
		}
	}

	result, err, _ := s.group.Do("bundle", func() (any, error) {
		bundle, err := s.assemble()
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.bundle = bundle
		s.builtAt = time.Now()
		s.mu.Unlock()
		return bundle, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *ScriptService) assemble() (string, error) {
	var parts []string
	for _, file := range s.files {
		content, err := os.ReadFile(filepath.Join(s.dir, file))
		if err != nil {
			return "", fmt.Errorf("failed to read script file %s: %w", file, err)
		}
		parts = append(parts, string(content))
	}
	s.logger.Debug().Int("files", len(s.files)).Msg("Assembled Shopify script bundle")
	return strings.Join(parts, "\n"), nil
}
