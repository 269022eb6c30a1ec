// Package app implements the application layer for tether.
package app

import (
	"context"
	"fmt"
	"io"

	"go.trai.ch/tether/internal/adapters/objgraph" //nolint:depguard // Scene trees are built in app layer
	"go.trai.ch/tether/internal/adapters/watcher"  //nolint:depguard // Debouncing is wired in app layer
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/binding"
	"go.trai.ch/tether/internal/engine/cache"
	"go.trai.ch/tether/internal/engine/convert"
	"go.trai.ch/tether/internal/engine/filter"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	bindingLoader ports.BindingLoader
	sceneLoader   ports.SceneLoader
	host          ports.Host
	loop          ports.EventLoop
	logger        ports.Logger
	tracer        ports.Tracer
	metrics       ports.Metrics
	watcher       ports.Watcher
}

// New creates a new App instance.
func New(
	bindingLoader ports.BindingLoader,
	sceneLoader ports.SceneLoader,
	host ports.Host,
	loop ports.EventLoop,
	log ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
	w ports.Watcher,
) *App {
	return &App{
		bindingLoader: bindingLoader,
		sceneLoader:   sceneLoader,
		host:          host,
		loop:          loop,
		logger:        log,
		tracer:        tracer,
		metrics:       metrics,
		watcher:       w,
	}
}

// Entry is the settled state of one declared binding.
type Entry struct {
	ID     string `json:"id"`
	Node   string `json:"node"`
	Target string `json:"target"`
	Mode   string `json:"mode"`
	Value  any    `json:"value"`
	Error  string `json:"error,omitempty"`
}

// Report lists the settled target values of a scene, in declaration order.
type Report struct {
	Scene    string  `json:"scene"`
	Bindings []Entry `json:"bindings"`
}

// session is one scene with its attached bindings.
type session struct {
	scene    domain.SceneNode
	root     *objgraph.Element
	decls    []domain.BindingDecl
	bindings []*binding.Binding
	failures map[string]error
	cache    *cache.Store
}

// Eval loads a scene and its bindings, attaches every binding and reports the target
// values once all propagation, including asynchronous sources, has settled.
func (a *App) Eval(ctx context.Context, scenePath, bindingsPath string) (Report, error) {
	s, err := a.load(scenePath, bindingsPath)
	if err != nil {
		return Report{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(ctx) })

	var report Report
	g.Go(func() error {
		defer cancel()
		a.attach(ctx, s, nil)
		defer s.detach()
		if err := a.settle(ctx, s); err != nil {
			return zerr.Wrap(err, "bindings did not settle")
		}
		report = s.report()
		return nil
	})

	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Watch attaches the bindings like Eval, writes every committed update to out and then
// follows both documents. A changed scene is reconciled onto the live tree so the
// engine propagates the edits; a changed binding document re-attaches all bindings.
// Watch returns when ctx is done.
func (a *App) Watch(ctx context.Context, scenePath, bindingsPath string, out io.Writer) error {
	s, err := a.load(scenePath, bindingsPath)
	if err != nil {
		return err
	}
	if err := a.watcher.Start(ctx, scenePath, bindingsPath); err != nil {
		return zerr.Wrap(err, "failed to watch documents")
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(ctx) })

	lines := &printer{out: out}
	a.loop.Dispatch(ctx, func(ctx context.Context) {
		a.attach(ctx, s, lines)
	})

	reload := func(paths []string) {
		a.reload(ctx, s, lines, scenePath, bindingsPath, paths)
	}
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, reload)

	g.Go(func() error {
		for ev := range a.watcher.Events() {
			debouncer.Add(ev.Path)
		}
		return nil
	})

	err = g.Wait()
	s.detach()
	return err
}

func (a *App) load(scenePath, bindingsPath string) (*session, error) {
	scene, err := a.sceneLoader.Load(scenePath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load scene")
	}
	decls, err := a.bindingLoader.Load(bindingsPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load bindings")
	}
	return &session{
		scene: scene,
		root:  objgraph.Build(scene),
		decls: decls,
	}, nil
}

// attach creates and attaches one binding per declaration. A declaration that cannot
// be attached is reported and skipped.
func (a *App) attach(ctx context.Context, s *session, out *printer) {
	s.cache = cache.NewStore(cache.WithMetrics(a.metrics))
	s.failures = make(map[string]error)
	s.bindings = make([]*binding.Binding, 0, len(s.decls))

	converters := convert.Builtins()
	filters := filter.Builtins()
	for _, decl := range s.decls {
		node := s.root.Find(decl.Node)
		if node == nil {
			err := zerr.With(domain.Annotate(domain.ErrNodeNotFound, "node", decl.Node), "binding", decl.ID)
			a.logger.Error(err)
			s.failures[decl.ID] = err
			continue
		}

		opts := []binding.Option{
			binding.WithName(decl.ID),
			binding.WithHost(a.host),
			binding.WithDispatcher(a.loop),
			binding.WithLogger(a.logger),
			binding.WithTracer(a.tracer),
			binding.WithMetrics(a.metrics),
			binding.WithCache(s.cache),
			binding.WithConverters(converters),
			binding.WithFilters(filters),
		}
		if out != nil {
			opts = append(opts, binding.WithObserver(out.line(decl.ID)))
		}

		b, err := binding.New(decl.Spec, node, opts...)
		if err == nil {
			err = b.Attach(ctx)
		}
		if err != nil {
			err = zerr.With(err, "binding", decl.ID)
			a.logger.Error(err)
			s.failures[decl.ID] = err
			continue
		}
		s.bindings = append(s.bindings, b)
	}
}

// settle waits until the loop is drained and no binding has an update in flight.
func (a *App) settle(ctx context.Context, s *session) error {
	for {
		if err := a.loop.Sync(ctx); err != nil {
			return err
		}
		busy := false
		for _, b := range s.bindings {
			if b.Pending() == 0 {
				continue
			}
			busy = true
			if err := b.Wait(ctx); err != nil {
				return err
			}
		}
		if !busy {
			return nil
		}
	}
}

func (a *App) reload(ctx context.Context, s *session, out *printer, scenePath, bindingsPath string, paths []string) {
	var sceneChanged, bindingsChanged bool
	for _, p := range paths {
		switch {
		case sameFile(p, scenePath):
			sceneChanged = true
		case sameFile(p, bindingsPath):
			bindingsChanged = true
		}
	}

	if bindingsChanged {
		decls, err := a.bindingLoader.Load(bindingsPath)
		if err != nil {
			a.logger.Error(zerr.Wrap(err, "keeping previous bindings"))
		} else {
			a.loop.Dispatch(ctx, func(ctx context.Context) {
				s.detach()
				s.decls = decls
				a.attach(ctx, s, out)
				a.logger.Info(fmt.Sprintf("re-attached %d bindings from %s", len(s.bindings), bindingsPath))
			})
		}
	}

	if sceneChanged {
		scene, err := a.sceneLoader.Load(scenePath)
		if err != nil {
			a.logger.Error(zerr.Wrap(err, "keeping previous scene"))
			return
		}
		a.loop.Dispatch(ctx, func(ctx context.Context) {
			n := objgraph.Reconcile(ctx, s.root, s.scene, scene)
			s.scene = scene
			a.logger.Info(fmt.Sprintf("reloaded %s: %d changes", scenePath, n))
		})
	}
}

func (s *session) detach() {
	for _, b := range s.bindings {
		b.Detach()
	}
	s.bindings = nil
}

func (s *session) report() Report {
	attached := make(map[string]*binding.Binding, len(s.bindings))
	for _, b := range s.bindings {
		attached[b.Name()] = b
	}

	r := Report{Scene: s.root.Name(), Bindings: make([]Entry, 0, len(s.decls))}
	for _, decl := range s.decls {
		e := Entry{
			ID:     decl.ID,
			Node:   decl.Node,
			Target: decl.Spec.Target,
			Mode:   decl.Spec.Mode.String(),
		}
		if err, failed := s.failures[decl.ID]; failed {
			e.Error = err.Error()
		} else if b, ok := attached[decl.ID]; ok {
			v, _ := b.Value()
			e.Value = objgraph.Plain(v)
		}
		r.Bindings = append(r.Bindings, e)
	}
	return r
}
