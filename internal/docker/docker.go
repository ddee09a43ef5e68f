package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"tenancy-graphx/internal/config"
)

const (
	containerName = "tenancy-graphx-neo4j"
	dataVolume    = "tenancy-graphx-neo4j-data"
)

// StartContainerOptions carries the settings for StartContainer.
type StartContainerOptions struct {
	Config *config.Config
}

// StartContainer runs a local Neo4j container for the graph. It pulls
// the configured image when absent, reuses an existing container when
// one is already there, and mounts a named volume for the data
// directory so stop/start cycles keep the database.
func StartContainer(ctx context.Context, opts StartContainerOptions) error {
	cfg := opts.Config
	if cfg.Neo4j.Password == "" {
		return fmt.Errorf("neo4j password is not set; run 'tenancy-graphx init' first")
	}
	imageRef := cfg.Neo4j.DockerImage
	if imageRef == "" {
		imageRef = "neo4j:5"
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	if id, running, found, err := findContainer(ctx, cli); err != nil {
		return err
	} else if found {
		if running {
			fmt.Printf("✓ Container %s is already running\n", containerName)
			return nil
		}
		if err := cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}
		fmt.Printf("✓ Container %s started\n", containerName)
		return nil
	}

	if err := ensureImage(ctx, cli, imageRef); err != nil {
		return err
	}

	httpPort := nat.Port("7474/tcp")
	boltPort := nat.Port("7687/tcp")

	resp, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image: imageRef,
			Env:   []string{"NEO4J_AUTH=" + cfg.Neo4j.User + "/" + cfg.Neo4j.Password},
			ExposedPorts: nat.PortSet{
				httpPort: struct{}{},
				boltPort: struct{}{},
			},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				httpPort: []nat.PortBinding{{HostPort: "7474"}},
				boltPort: []nat.PortBinding{{HostPort: "7687"}},
			},
			Mounts: []mount.Mount{{
				Type:   mount.TypeVolume,
				Source: dataVolume,
				Target: "/data",
			}},
		},
		nil, nil, containerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	fmt.Printf("✓ Neo4j container %s started\n", containerName)
	fmt.Println("  Browser UI: http://localhost:7474")
	fmt.Printf("  Bolt URI:   %s\n", cfg.Neo4j.URI)
	return nil
}

// StopContainer stops and removes the Neo4j container. The data volume
// is left in place.
func StopContainer(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	id, _, found, err := findContainer(ctx, cli)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("container %s not found", containerName)
	}

	fmt.Printf("Stopping container %s...\n", containerName)
	timeout := 10
	if err := cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		// The container might already be stopped; removal decides.
		fmt.Printf("Warning: failed to stop container: %v\n", err)
	} else {
		fmt.Println("✓ Container stopped")
	}

	if err := cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	fmt.Printf("✓ Container %s removed\n", containerName)
	fmt.Printf("\nNote: graph data is preserved in the %s volume\n", dataVolume)
	return nil
}

func findContainer(ctx context.Context, cli *client.Client) (id string, running, found bool, err error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return "", false, false, fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range containers {
		for _, name := range c.Names {
			if name == "/"+containerName {
				return c.ID, c.State == "running", true, nil
			}
		}
	}
	return "", false, false, nil
}

func ensureImage(ctx context.Context, cli *client.Client, ref string) error {
	images, err := cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) > 0 {
		return nil
	}

	fmt.Printf("Pulling image %s...\n", ref)
	reader, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	fmt.Printf("✓ Image %s ready\n", ref)
	return nil
}
