package sandbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Mode selects the execution backend.
type Mode string

const (
	ModeDocker Mode = "docker" // containers, fails over to host if unusable
	ModeHost   Mode = "host"   // direct execution, no isolation
	ModeAuto   Mode = "auto"   // docker when available, host otherwise
)

// Config holds runner settings.
type Config struct {
	Mode       Mode
	Image      string        // Docker image override
	CPU        string        // CPU limit, e.g. "2"
	Memory     string        // memory limit, e.g. "1g"
	CmdTimeout time.Duration // default command timeout
}

// ConfigFromEnv reads runner settings from the environment.
func ConfigFromEnv() Config {
	mode := ModeAuto
	switch strings.ToLower(os.Getenv("REVUE_SANDBOX_MODE")) {
	case "docker":
		mode = ModeDocker
	case "host":
		mode = ModeHost
	case "auto", "":
	default:
		log.Printf("unknown REVUE_SANDBOX_MODE %q, using auto", os.Getenv("REVUE_SANDBOX_MODE"))
	}

	cmdTimeout := 2 * time.Minute
	if raw := os.Getenv("REVUE_CMD_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cmdTimeout = d
		} else {
			log.Printf("invalid REVUE_CMD_TIMEOUT %q, using 2m", raw)
		}
	}

	cpu := os.Getenv("REVUE_DOCKER_CPU")
	if cpu == "" {
		cpu = "2"
	}
	memory := os.Getenv("REVUE_DOCKER_MEMORY")
	if memory == "" {
		memory = "1g"
	}

	return Config{
		Mode:       mode,
		Image:      os.Getenv("REVUE_DOCKER_IMAGE"),
		CPU:        cpu,
		Memory:     memory,
		CmdTimeout: cmdTimeout,
	}
}

// DockerAvailable reports whether a Docker daemon answers.
func DockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "ps")
	return cmd.Run() == nil
}

// NewRunner creates the runner for the configured mode. Docker and auto
// modes fall back to the host runner, with a warning, when Docker is
// unusable.
func NewRunner(config Config) Runner {
	ctx := context.Background()

	switch config.Mode {
	case ModeDocker, ModeAuto:
		if !DockerAvailable(ctx) {
			if config.Mode == ModeDocker {
				log.Printf("docker mode requested but docker is not available, falling back to host execution")
			} else {
				log.Printf("docker not available, commands run unsandboxed on the host")
			}
			return &HostRunner{config: config}
		}
		runner, err := NewDockerRunner(config)
		if err != nil {
			log.Printf("failed to create docker runner (%v), falling back to host execution", err)
			return &HostRunner{config: config}
		}
		return runner

	case ModeHost:
		log.Printf("host execution mode: commands run unsandboxed")
		return &HostRunner{config: config}

	default:
		log.Printf("unknown sandbox mode %q, using host execution", config.Mode)
		return &HostRunner{config: config}
	}
}

// NewExplicitRunner creates a runner for one mode without fallback.
func NewExplicitRunner(mode Mode, config Config) (Runner, error) {
	switch mode {
	case ModeDocker:
		return NewDockerRunner(config)
	case ModeHost:
		return &HostRunner{config: config}, nil
	default:
		return nil, fmt.Errorf("unknown runner mode: %s", mode)
	}
}
