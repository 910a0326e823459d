package router

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appquality "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/persistence"
	"github.com/qcms/backend/internal/interfaces/http/handler"
)

// Deps carries what entity factories need to build their modules
type Deps struct {
	DB *gorm.DB
	// Configs holds every entity config; factories may read configs other
	// than their own (iqa-images checks its parent inspection).
	Configs       map[string]shared.EntityConfig
	Storage       appquality.ObjectStorage
	CheckinSource quality.CheckinSource
	Sync          appquality.SyncOptions
	Upload        appquality.UploadOptions
	MaxBulk       int
	MaxImportRows int
	Logger        *zap.Logger
}

// Factory builds the route module of one entity
type Factory func(cfg shared.EntityConfig, deps *Deps) (handler.Module, error)

// Registration is one row of the entity table
type Registration struct {
	Name    string
	Pattern shared.PatternType
	Factory Factory
}

var errNoDatabase = errors.New("database is not configured")

// DefaultRegistrations returns the quality entities in mount order
func DefaultRegistrations() []Registration {
	return []Registration{
		{Name: quality.EntityDefects, Pattern: shared.PatternSerialID, Factory: defectFactory},
		{
			Name:    quality.EntityCheckpoints,
			Pattern: shared.PatternVarcharCode,
			Factory: crudFactory[quality.InspectionCheckpoint, appquality.CreateCheckpointRequest, appquality.UpdateCheckpointRequest](),
		},
		{Name: quality.EntityCheckin, Pattern: shared.PatternSerialID, Factory: checkinFactory},
		{Name: quality.EntityLotInputs, Pattern: shared.PatternSerialID, Factory: lotInputFactory},
		{Name: quality.EntityIqaData, Pattern: shared.PatternSerialID, Factory: iqaFactory},
		{Name: quality.EntityIqaImages, Pattern: shared.PatternSerialID, Factory: imageFactory},
		{
			Name:    quality.EntityCustomers,
			Pattern: shared.PatternVarcharCode,
			Factory: crudFactory[quality.Customer, appquality.CreateCustomerRequest, appquality.UpdateCustomerRequest](),
		},
		{
			Name:    quality.EntitySites,
			Pattern: shared.PatternVarcharCode,
			Factory: crudFactory[quality.Site, appquality.CreateSiteRequest, appquality.UpdateSiteRequest](),
		},
		{
			Name:    quality.EntityCustomerSite,
			Pattern: shared.PatternSpecial,
			Factory: crudFactory[quality.CustomerSite, appquality.CreateCustomerSiteRequest, appquality.UpdateCustomerSiteRequest](),
		},
	}
}

func crudFactory[T any, C appquality.CreateRequest[T], U appquality.UpdateRequest]() Factory {
	return func(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
		if deps.DB == nil {
			return nil, errNoDatabase
		}
		svc := appquality.NewCrudService[T, C, U](persistence.NewCrudRepository[T](deps.DB, cfg), cfg)
		return handler.NewEntityHandler[T, C, U](svc), nil
	}
}

func defectFactory(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
	if deps.DB == nil {
		return nil, errNoDatabase
	}
	repo := persistence.NewGormDefectRepository(deps.DB, cfg)
	return handler.NewDefectHandler(appquality.NewDefectService(repo, cfg, deps.MaxImportRows)), nil
}

func checkinFactory(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
	if deps.DB == nil {
		return nil, errNoDatabase
	}
	repo := persistence.NewGormCheckinRepository(deps.DB, cfg)
	svc := appquality.NewCheckinService(repo, cfg, deps.CheckinSource, deps.Sync, deps.Logger)
	return handler.NewCheckinHandler(svc), nil
}

func lotInputFactory(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
	if deps.DB == nil {
		return nil, errNoDatabase
	}
	repo := persistence.NewCrudRepository[quality.LotInput](deps.DB, cfg)
	return handler.NewLotInputHandler(appquality.NewLotInputService(repo, cfg, deps.MaxImportRows)), nil
}

func iqaFactory(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
	if deps.DB == nil {
		return nil, errNoDatabase
	}
	repo := persistence.NewGormIqaRepository(deps.DB, cfg)
	return handler.NewIqaHandler(appquality.NewIqaService(repo, cfg, deps.MaxBulk)), nil
}

func imageFactory(cfg shared.EntityConfig, deps *Deps) (handler.Module, error) {
	if deps.DB == nil {
		return nil, errNoDatabase
	}
	if deps.Storage == nil {
		return nil, errors.New("object storage is not configured")
	}
	iqaCfg, ok := deps.Configs[quality.EntityIqaData]
	if !ok {
		return nil, fmt.Errorf("%s config is required", quality.EntityIqaData)
	}
	svc := appquality.NewImageService(
		persistence.NewCrudRepository[quality.IqaImage](deps.DB, cfg),
		cfg,
		persistence.NewCrudRepository[quality.IqaData](deps.DB, iqaCfg),
		deps.Storage,
		deps.Upload,
		deps.Logger,
	)
	return handler.NewImageHandler(svc), nil
}

// Registry mounts registered entities and remembers the outcome of each
type Registry struct {
	registrations []Registration
	deps          *Deps
	logger        *zap.Logger
	results       []handler.MountResult
	docs          []DocRoute
}

// NewRegistry creates a registry over registrations. deps.Configs supplies
// the per-entity configs.
func NewRegistry(registrations []Registration, deps *Deps) *Registry {
	if deps == nil {
		deps = &Deps{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Registry{registrations: registrations, deps: deps, logger: deps.Logger}
}

// Mount builds and mounts every registration on api. An entity whose
// module cannot be built is mounted as a stub answering 501. When two
// registrations share a path the later one wins.
func (r *Registry) Mount(api *gin.RouterGroup) []handler.MountResult {
	base := api.BasePath()
	for _, reg := range r.dedupe() {
		cfg, hasConfig := r.deps.Configs[reg.Name]
		path := r.pathOf(reg)

		result := handler.MountResult{Name: reg.Name, Path: base + path, Pattern: string(reg.Pattern)}
		module, reason := r.build(reg, cfg, hasConfig)
		if reason == "" {
			if err := r.mountModule(api.Group(path), module, reg.Name); err != nil {
				reason = err.Error()
			}
		}

		if reason == "" {
			result.Status = handler.MountStatusMounted
			r.logger.Info("Entity mounted",
				zap.String("entity", reg.Name),
				zap.String("path", result.Path),
				zap.String("pattern", result.Pattern),
			)
		} else {
			result.Status = handler.MountStatusStub
			result.Reason = reason
			r.logger.Warn("Entity mounted as stub",
				zap.String("entity", reg.Name),
				zap.String("path", result.Path),
				zap.String("reason", reason),
			)
			stub := &handler.StubModule{Entity: reg.Name}
			if hasConfig && cfg.Validate() == nil {
				stub.KeyPath = cfg.KeyPath()
			}
			if err := r.mountModule(api.Group(path), stub, reg.Name); err != nil {
				r.logger.Error("Failed to mount stub",
					zap.String("entity", reg.Name),
					zap.Error(err),
				)
			}
		}
		r.results = append(r.results, result)
	}
	return r.Results()
}

// Results returns a copy of the mount outcomes in mount order
func (r *Registry) Results() []handler.MountResult {
	return slices.Clone(r.results)
}

// Docs returns the mounted entity routes for the API document
func (r *Registry) Docs() []DocRoute {
	return slices.Clone(r.docs)
}

func (r *Registry) pathOf(reg Registration) string {
	if cfg, ok := r.deps.Configs[reg.Name]; ok && cfg.APIPath != "" {
		return cfg.APIPath
	}
	return "/" + reg.Name
}

// dedupe keeps the last registration for each path, in table order
func (r *Registry) dedupe() []Registration {
	last := make(map[string]int, len(r.registrations))
	for i, reg := range r.registrations {
		last[r.pathOf(reg)] = i
	}
	kept := make([]Registration, 0, len(last))
	for i, reg := range r.registrations {
		path := r.pathOf(reg)
		if last[path] != i {
			r.logger.Warn("Entity registration replaced by a later one",
				zap.String("entity", reg.Name),
				zap.String("path", path),
				zap.String("replaced_by", r.registrations[last[path]].Name),
			)
			continue
		}
		kept = append(kept, reg)
	}
	return kept
}

// build returns the entity module, or the reason it could not be built
func (r *Registry) build(reg Registration, cfg shared.EntityConfig, hasConfig bool) (handler.Module, string) {
	if !hasConfig {
		return nil, "no entity config"
	}
	if cfg.Pattern != reg.Pattern {
		return nil, fmt.Sprintf("pattern mismatch: registered %s, configured %s", reg.Pattern, cfg.Pattern)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "invalid config: " + err.Error()
	}
	if reg.Factory == nil {
		return nil, "no factory"
	}

	module, err := callFactory(reg.Factory, cfg, r.deps)
	if err != nil {
		return nil, err.Error()
	}
	if module == nil {
		return nil, "factory returned no module"
	}
	if err := checkShape(module.Routes()); err != nil {
		return nil, err.Error()
	}
	return module, ""
}

func callFactory(factory Factory, cfg shared.EntityConfig, deps *Deps) (module handler.Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			module, err = nil, fmt.Errorf("factory panicked: %v", rec)
		}
	}()
	module, err = factory(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("factory failed: %w", err)
	}
	return module, nil
}

// checkShape requires the CRUD methods, handlers on every route and no
// duplicate method/path pairs
func checkShape(routes []handler.Route) error {
	seen := make(map[string]bool, len(routes))
	methods := make(map[string]bool, len(handler.RequiredMethods))
	for _, route := range routes {
		id := route.Method + " " + route.Path
		if route.Handler == nil {
			return fmt.Errorf("route %s has no handler", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate route %s", id)
		}
		seen[id] = true
		methods[route.Method] = true
	}

	var missing []string
	for _, m := range handler.RequiredMethods {
		if !methods[m] {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("module does not expose %s routes", strings.Join(missing, ", "))
	}
	return nil
}

// mountModule registers routes on group. gin panics on conflicting
// wildcards; the panic is returned as an error.
func (r *Registry) mountModule(group *gin.RouterGroup, module handler.Module, entity string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("route registration failed: %v", rec)
		}
	}()
	routes := module.Routes()
	for _, route := range routes {
		group.Handle(route.Method, route.Path, route.Handler)
	}
	for _, route := range routes {
		r.docs = append(r.docs, DocRoute{
			Method:  route.Method,
			Path:    group.BasePath() + route.Path,
			Summary: route.Summary,
			Tag:     entity,
		})
	}
	return nil
}
