// Package audio plays background music and sound effects for the engine.
// Decoding is left to a Player backend; the service only decides what
// should be playing and finds the files.
package audio

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// trackExtensions lists file extensions to try for a track name without one.
var trackExtensions = []string{".mp3", ".ogg", ".wav", ".m4a"}

// DefaultPollInterval is how often the music worker checks for a new request.
const DefaultPollInterval = 100 * time.Millisecond

// Player plays one audio file until it ends or ctx is cancelled. Music is
// played with loop set.
type Player interface {
	Play(ctx context.Context, path string, loop bool) error
}

// Service owns the music worker. PlayMusic and StopMusic only record the
// request; the worker notices it on its next poll.
type Service struct {
	Dir          string
	Player       Player
	Logger       *slog.Logger
	PollInterval time.Duration

	mu          sync.Mutex
	requested   string
	unavailable map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for missing tracks and playback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.Logger = logger }
}

// WithPollInterval sets how often the music worker checks for requests.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.PollInterval = d }
}

// New creates a service reading tracks from dir and starts its music worker.
func New(dir string, player Player, opts ...Option) *Service {
	s := &Service{
		Dir:          dir,
		Player:       player,
		Logger:       slog.New(slog.DiscardHandler),
		PollInterval: DefaultPollInterval,
		unavailable:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.musicWorker()
	return s
}

// PlayMusic requests name as the background track.
func (s *Service) PlayMusic(name string) {
	s.mu.Lock()
	s.requested = name
	s.mu.Unlock()
}

// StopMusic requests silence.
func (s *Service) StopMusic() {
	s.PlayMusic("")
}

// PlaySound plays an effect on its own goroutine. It does nothing once the
// service is closed.
func (s *Service) PlaySound(name string) {
	path, ok := s.resolve(name)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		if err := s.Player.Play(s.ctx, path, false); err != nil && s.ctx.Err() == nil {
			s.Logger.Warn("playing sound", "sound", name, "err", err)
		}
	}()
}

// Close stops the music worker and any playing sounds.
func (s *Service) Close() error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Available reports whether name resolved to a file or has not been tried.
func (s *Service) Available(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unavailable[name]
}

func (s *Service) musicWorker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	var current string
	var stop context.CancelFunc = func() {}
	defer func() { stop() }()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		requested := s.requested
		s.mu.Unlock()
		if requested == current {
			continue
		}

		stop()
		stop = func() {}
		current = requested
		if requested == "" {
			s.Logger.Debug("music stopped")
			continue
		}

		path, ok := s.resolve(requested)
		if !ok {
			continue
		}
		var trackCtx context.Context
		trackCtx, stop = context.WithCancel(s.ctx)
		s.wg.Add(1)
		go func(name string) {
			defer s.wg.Done()
			if err := s.Player.Play(trackCtx, path, true); err != nil && trackCtx.Err() == nil {
				s.Logger.Warn("playing music", "track", name, "err", err)
			}
		}(requested)
		s.Logger.Debug("music started", "track", requested, "path", path)
	}
}

// resolve finds the file for a track. A track that cannot be found is
// logged once and skipped from then on.
func (s *Service) resolve(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable[name] {
		return "", false
	}
	for _, p := range candidates(s.Dir, name) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	s.unavailable[name] = true
	s.Logger.Warn("audio track not found", "track", name, "dir", s.Dir)
	return "", false
}

// candidates lists the paths to try for a track, in order. Names carrying
// an extension are tried as-is; names that try to leave dir yield nothing.
func candidates(dir, name string) []string {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return nil
	}
	base := filepath.Join(dir, name)
	if filepath.Ext(name) != "" {
		return []string{base}
	}
	paths := make([]string, len(trackExtensions))
	for i, ext := range trackExtensions {
		paths[i] = base + ext
	}
	return paths
}

// CommandPlayer plays files by running an external program, for example
// "ffplay -nodisp -autoexit -loglevel quiet". The file path is appended
// as the last argument.
type CommandPlayer struct {
	Command []string
}

// NewCommandPlayer splits command on whitespace.
func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{Command: strings.Fields(command)}
}

// Play runs the command, restarting it while loop is set and ctx is live.
func (p *CommandPlayer) Play(ctx context.Context, path string, loop bool) error {
	if len(p.Command) == 0 {
		return errors.New("no player command configured")
	}
	for {
		args := append(append([]string{}, p.Command[1:]...), path)
		cmd := exec.CommandContext(ctx, p.Command[0], args...)
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if !loop || ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
