package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/launch"
)

// ErrNotInstalled is returned when launching an instance with no
// installed pack.
var ErrNotInstalled = errors.New("pack is not installed")

// LaunchService ensures an instance's libraries and starts the game.
type LaunchService struct {
	libraries *LibrariesService
	launcher  launch.Launcher
}

// NewLaunchService creates a launch service.
func NewLaunchService(libraries *LibrariesService, launcher launch.Launcher) *LaunchService {
	return &LaunchService{libraries: libraries, launcher: launcher}
}

// LaunchRequest contains parameters for launching.
type LaunchRequest struct {
	Layout instance.Layout
	Player string
	LibrariesRequest
}

// LaunchResult reports the library passes that ran before the game.
type LaunchResult struct {
	State     *instance.State
	Libraries *LibrariesResult
}

// Launch ensures libraries, then runs the game until it exits. A fatal
// library failure means the game is never started.
func (s *LaunchService) Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	state, err := instance.LoadState(req.Layout)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, req.Layout.Root)
	}

	libReq := req.LibrariesRequest
	libReq.Layout = req.Layout
	if libReq.Builtin == "" {
		libReq.Builtin = state.Libraries
	}

	res := &LaunchResult{State: state}
	res.Libraries, err = s.libraries.Ensure(ctx, libReq)
	if err != nil {
		return res, err
	}

	err = s.launcher.Launch(ctx, launch.Spec{
		Manifest: res.Libraries.Manifest,
		Layout:   req.Layout,
		Player:   req.Player,
	})
	return res, err
}
