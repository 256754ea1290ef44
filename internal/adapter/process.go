package adapter

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
	"github.com/tungate/tungate/internal/networking"
)

// Status represents the adapter process lifecycle state.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusStarting    Status = "starting"
	StatusRunning     Status = "running"
	StatusTerminating Status = "terminating"
	StatusExited      Status = "exited"
)

// Supervisor owns the SOCKS5-to-TUN adapter process. No other component
// signals the process directly: spawning, readiness, interface bring-up
// and termination all go through the supervisor.
type Supervisor struct {
	mu      sync.Mutex
	cfg     *config.Config
	backend networking.RoutingBackend

	cmd      *exec.Cmd
	status   Status
	exitErr  error
	done     chan struct{}
	stopOnce sync.Once
}

func NewSupervisor(cfg *config.Config, backend networking.RoutingBackend) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		backend: backend,
		status:  StatusIdle,
	}
}

// Start spawns the adapter bound to the configured TUN device and SOCKS5
// endpoint and begins monitoring it.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.NewAdapterSpawnError("adapter is already running", nil)
	}

	cmd := exec.Command(s.cfg.Tun2socksBin,
		"-device", s.cfg.TunDevice,
		"-proxy", "socks5://"+s.cfg.SocksAddr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewAdapterSpawnError("failed to create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewAdapterSpawnError("failed to create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewAdapterSpawnError(
			fmt.Sprintf("failed to start adapter %s", s.cfg.Tun2socksBin), err)
	}

	s.cmd = cmd
	s.status = StatusStarting
	s.done = make(chan struct{})

	log.Infof("Adapter started with PID %d (device=%s, proxy=socks5://%s)",
		cmd.Process.Pid, s.cfg.TunDevice, s.cfg.SocksAddr)

	go s.streamOutput(stdout)
	go s.streamOutput(stderr)
	go s.monitor()

	return nil
}

// WaitReady polls for the TUN device to appear in the kernel, bounded by
// timeout. The device is a side effect of the adapter starting, not a
// guaranteed-instant one, so this is the synchronization point before any
// interaction with the interface. Fails fast if the adapter exits while
// waiting.
func (s *Supervisor) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := s.backend.LinkByName(s.cfg.TunDevice); err == nil {
			s.mu.Lock()
			if s.status == StatusStarting {
				s.status = StatusRunning
			}
			s.mu.Unlock()
			log.Debugf("TUN device %s is present", s.cfg.TunDevice)
			return nil
		}

		select {
		case <-s.done:
			return errors.NewAdapterSpawnError("adapter exited before the TUN device appeared", s.ExitErr())
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return errors.NewAdapterSpawnError(
				fmt.Sprintf("timed out after %v waiting for TUN device %s", timeout, s.cfg.TunDevice), nil)
		}
	}
}

// BringUp brings the TUN device administratively up and assigns it the
// configured local address.
func (s *Supervisor) BringUp() error {
	iface, err := networking.GetInterface(s.backend, s.cfg.TunDevice)
	if err != nil {
		return errors.NewAdapterSpawnError(
			fmt.Sprintf("failed to find TUN device %s", s.cfg.TunDevice), err)
	}

	if err := iface.Up(); err != nil {
		return errors.NewAdapterSpawnError(
			fmt.Sprintf("failed to bring up TUN device %s", s.cfg.TunDevice), err)
	}

	if err := iface.AssignAddr(s.cfg.LocalAddr); err != nil {
		return errors.NewAdapterSpawnError(
			fmt.Sprintf("failed to assign %s to TUN device %s", s.cfg.LocalAddr, s.cfg.TunDevice), err)
	}

	log.Infof("TUN device %s is up with address %s", s.cfg.TunDevice, s.cfg.LocalAddr)
	return nil
}

// Stop requests graceful termination and waits for the process to exit,
// force-killing it once the timeout elapses. Safe to call more than once
// and after the process has already exited.
func (s *Supervisor) Stop(timeout time.Duration) {
	s.mu.Lock()
	if s.cmd == nil || s.status == StatusExited {
		s.mu.Unlock()
		return
	}
	s.status = StatusTerminating
	proc := s.cmd.Process
	done := s.done
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		log.Infof("Sending SIGTERM to adapter (PID %d)", proc.Pid)
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			log.Debugf("Failed to signal adapter: %v", err)
		}

		select {
		case <-done:
		case <-time.After(timeout):
			log.Warnf("Adapter did not exit within %v, killing it", timeout)
			if err := proc.Kill(); err != nil {
				log.Warnf("Failed to kill adapter: %v", err)
			}
		}
	})

	<-done
}

// Done is closed once the adapter process has been reaped.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// ExitErr returns the process exit error, nil for a clean exit.
func (s *Supervisor) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Status returns the current lifecycle state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// PID returns the adapter process id, 0 if it was never started.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Supervisor) monitor() {
	err := s.cmd.Wait()

	s.mu.Lock()
	wasTerminating := s.status == StatusTerminating
	s.exitErr = err
	s.status = StatusExited
	close(s.done)
	s.mu.Unlock()

	if wasTerminating {
		log.Infof("Adapter exited")
	} else if err != nil {
		log.Errorf("Adapter exited unexpectedly: %v", err)
	} else {
		log.Errorf("Adapter exited unexpectedly with status 0")
	}
}

func (s *Supervisor) streamOutput(pipe io.ReadCloser) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		log.Debugf("[tun2socks] %s", scanner.Text())
	}
}
