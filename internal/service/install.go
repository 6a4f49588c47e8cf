package service

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/modpack"
)

// PackInstaller installs a pack archive into an instance.
type PackInstaller interface {
	Install(ctx context.Context, pack *modpack.Pack, layout instance.Layout) (*modpack.Result, error)
}

// InstallService installs a catalog pack and prepares its libraries.
type InstallService struct {
	installer PackInstaller
	libraries *LibrariesService
	layoutFor func(pack string) instance.Layout
}

// NewInstallService creates an install service. layoutFor maps a pack
// name to its instance layout.
func NewInstallService(installer PackInstaller, libraries *LibrariesService, layoutFor func(pack string) instance.Layout) *InstallService {
	return &InstallService{installer: installer, libraries: libraries, layoutFor: layoutFor}
}

// InstallRequest contains parameters for installing a pack.
type InstallRequest struct {
	Catalog *modpack.Catalog
	Pack    string
	// SkipLibraries installs the archive only
	SkipLibraries bool
	LibrariesRequest
}

// InstallResult contains the results of the install operation.
type InstallResult struct {
	Pack      *modpack.Pack
	Layout    instance.Layout
	Archive   *modpack.Result
	Libraries *LibrariesResult
}

// Install finds the pack, installs its archive and ensures its libraries.
func (s *InstallService) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if req.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	pack, err := req.Catalog.Find(req.Pack)
	if err != nil {
		return nil, err
	}

	layout := s.layoutFor(pack.Name)
	res := &InstallResult{Pack: pack, Layout: layout}

	res.Archive, err = s.installer.Install(ctx, pack, layout)
	if err != nil {
		return res, fmt.Errorf("install %s: %w", pack.Name, err)
	}

	if req.SkipLibraries {
		return res, nil
	}

	libReq := req.LibrariesRequest
	libReq.Layout = layout
	if libReq.Builtin == "" {
		libReq.Builtin = pack.LibrariesName()
	}
	res.Libraries, err = s.libraries.Ensure(ctx, libReq)
	return res, err
}
