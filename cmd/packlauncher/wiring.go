package main

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/launch"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/modpack"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/service"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/transport"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/verify"
)

// downloader returns the transport downloader for pack archives and the
// catalog.
func (a *app) downloader() *transport.Downloader {
	d := a.settings.Download
	return transport.NewDownloader(transport.Config{
		Timeout:   d.Timeout,
		Retries:   d.Retries,
		UserAgent: d.UserAgent,
		Logger:    a.logger("transport"),
	})
}

func (a *app) loadCatalog(ctx context.Context) (*modpack.Catalog, error) {
	if a.settings.Catalog == "" {
		return nil, fmt.Errorf("no catalog configured: set catalog in %s or PACKLAUNCHER_CATALOG", a.configPathForDisplay())
	}
	return modpack.LoadCatalog(ctx, a.settings.Catalog, a.settings.CacheDir, a.downloader())
}

func (a *app) configPathForDisplay() string {
	if a.configPath != "" {
		return a.configPath
	}
	return "the settings file"
}

func (a *app) layout(pack string) instance.Layout {
	return instance.NewLayout(a.settings.InstanceDir(pack))
}

func (a *app) librariesService() (*service.LibrariesService, error) {
	d := a.settings.Download
	libTransport := transport.NewHTTPTransport(a.downloader().WithRetries(d.LibraryRetries), nil)

	return service.NewLibrariesService(service.LibrariesConfig{
		Transport: libTransport,
		Parser:    manifest.NewParser(a.detector),
		Detector:  a.detector,
		Workers:   d.Workers,
		MinSize:   d.MinSize,
		Logger:    a.logger("libraries"),
	})
}

func (a *app) installService(force bool) (*service.InstallService, error) {
	installer, err := modpack.NewInstaller(
		a.downloader(),
		transport.NewExtractor(),
		verify.NewVerifier(a.settings.Keyring),
		modpack.Config{
			CacheDir:            a.settings.CacheDir,
			RequireVerification: a.settings.RequireVerification,
			Force:               force,
			Logger:              a.logger("installer"),
		},
	)
	if err != nil {
		return nil, err
	}

	libs, err := a.librariesService()
	if err != nil {
		return nil, err
	}
	return service.NewInstallService(installer, libs, a.layout), nil
}

func (a *app) launchService() (*service.LaunchService, error) {
	libs, err := a.librariesService()
	if err != nil {
		return nil, err
	}
	launcher := launch.NewJavaLauncher(launch.Config{
		JavaPath:  a.settings.Java.Path,
		MaxMemory: a.settings.Java.MaxMemory,
		ExtraArgs: a.settings.Java.ExtraArgs,
		Logger:    a.logger("launch"),
	})
	return service.NewLaunchService(libs, launcher), nil
}
