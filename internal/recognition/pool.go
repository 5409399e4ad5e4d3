package recognition

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/food-vision-mcp/internal/config"
)

// LoaderFunc loads the classifier for one group.
type LoaderFunc func(group string, spec config.Classifier) (Classifier, error)

// GroupStatus describes one pool entry.
type GroupStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ClassifierPool holds at most one loaded classifier per group. Membership is
// fixed at construction; lookups are safe for concurrent use.
type ClassifierPool struct {
	members map[string]Classifier
	errs    map[string]error
}

// NewClassifierPool wraps already-loaded classifiers. A nil value marks the
// group as unavailable.
func NewClassifierPool(classifiers map[string]Classifier) *ClassifierPool {
	p := &ClassifierPool{
		members: make(map[string]Classifier, len(classifiers)),
		errs:    make(map[string]error),
	}
	for group, c := range classifiers {
		p.members[group] = c
		if c == nil {
			p.errs[group] = unavailable(group)
		}
	}
	return p
}

// LoadClassifierPool loads every configured classifier eagerly. Groups load
// concurrently; a group whose loader fails or panics is recorded as
// unavailable and the others are unaffected.
func LoadClassifierPool(specs map[string]config.Classifier, load LoaderFunc, log logrus.FieldLogger) *ClassifierPool {
	if log == nil {
		log = logrus.StandardLogger()
	}

	p := &ClassifierPool{
		members: make(map[string]Classifier, len(specs)),
		errs:    make(map[string]error),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workerCount(len(specs)))

	for group, spec := range specs {
		g.Go(func() error {
			c, err := safeLoad(load, group, spec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithField("group", group).WithError(err).Warn("classifier unavailable")
				p.members[group] = nil
				p.errs[group] = err
				return nil
			}
			log.WithFields(logrus.Fields{"group": group, "model": spec.Model}).Info("classifier loaded")
			p.members[group] = c
			return nil
		})
	}
	_ = g.Wait()

	return p
}

func safeLoad(load LoaderFunc, group string, spec config.Classifier) (c Classifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("load classifier %s: panic: %v", group, r)
		}
	}()
	c, err = load(group, spec)
	if err == nil && c == nil {
		err = fmt.Errorf("load classifier %s: loader returned nothing", group)
	}
	return c, err
}

func workerCount(n int) int {
	limit := runtime.NumCPU()
	if limit > 4 {
		limit = 4
	}
	if n < limit {
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Get returns the classifier for group. ok is false when the group was never
// configured or failed to load.
func (p *ClassifierPool) Get(group string) (Classifier, bool) {
	if p == nil {
		return nil, false
	}
	c := p.members[group]
	return c, c != nil
}

// Status lists every configured group sorted by name.
func (p *ClassifierPool) Status() []GroupStatus {
	if p == nil {
		return nil
	}
	out := make([]GroupStatus, 0, len(p.members))
	for group, c := range p.members {
		st := GroupStatus{Name: group, Available: c != nil}
		if err := p.errs[group]; err != nil {
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close releases every loaded classifier that holds resources.
func (p *ClassifierPool) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	for group, c := range p.members {
		closer, ok := c.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close classifier %s: %w", group, err))
		}
	}
	return errors.Join(errs...)
}
