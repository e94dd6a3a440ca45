// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the PostgreSQL image used by store tests
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultMongoImage is the MongoDB image used by store tests
	DefaultMongoImage = "mongo:7"

	postgresPort = "5432/tcp"
	mongoPort    = "27017/tcp"

	testDBUser     = "twangwire"
	testDBPassword = "twangwire"
	testDBName     = "twangwire"
)

// DatabaseContainer is a running database container with its connection string.
type DatabaseContainer struct {
	testcontainers.Container
	// ConnString is a DSN (PostgreSQL) or URI (MongoDB) reachable from the host.
	ConnString string
	// Database is the database name created for the test.
	Database string
}

// ContainerOption configures a database container.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	image        string
	startTimeout time.Duration
}

// WithImage overrides the container image.
func WithImage(image string) ContainerOption {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithStartTimeout sets the timeout for waiting for the container to start.
func WithStartTimeout(timeout time.Duration) ContainerOption {
	return func(c *containerConfig) {
		c.startTimeout = timeout
	}
}

func applyOptions(image string, opts []ContainerOption) *containerConfig {
	cfg := &containerConfig{image: image, startTimeout: 90 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewPostgresContainer starts PostgreSQL and returns a pgx-compatible DSN.
//
// Example:
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	store, err := postgres.New(ctx, &config.DatabaseConfig{PostgresDSN: pg.ConnString})
func NewPostgresContainer(ctx context.Context, opts ...ContainerOption) (*DatabaseContainer, error) {
	cfg := applyOptions(DefaultPostgresImage, opts)

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_USER":     testDBUser,
			"POSTGRES_PASSWORD": testDBPassword,
			"POSTGRES_DB":       testDBName,
		},
		// The server logs readiness twice: once for the init run, once for real
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(postgresPort),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := startContainer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, port, err := endpoint(ctx, container)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testDBUser, testDBPassword, host, port, testDBName)

	return &DatabaseContainer{
		Container:  container,
		ConnString: dsn,
		Database:   testDBName,
	}, nil
}

// NewMongoContainer starts a standalone MongoDB server.
func NewMongoContainer(ctx context.Context, opts ...ContainerOption) (*DatabaseContainer, error) {
	cfg := applyOptions(DefaultMongoImage, opts)

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{mongoPort},
		WaitingFor: wait.ForAll(
			wait.ForLog("Waiting for connections"),
			wait.ForListeningPort(mongoPort),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := startContainer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create mongo container: %w", err)
	}

	host, port, err := endpoint(ctx, container)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &DatabaseContainer{
		Container:  container,
		ConnString: fmt.Sprintf("mongodb://%s:%s", host, port),
		Database:   testDBName,
	}, nil
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, error) {
	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
}

// endpoint resolves the host and the mapped port. Each container exposes a
// single port.
func endpoint(ctx context.Context, container testcontainers.Container) (string, string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get container host: %w", err)
	}
	ports, err := container.Ports(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get mapped port: %w", err)
	}
	for _, bindings := range ports {
		if len(bindings) > 0 {
			return host, bindings[0].HostPort, nil
		}
	}
	return "", "", fmt.Errorf("container exposes no mapped port")
}
