package docker

import (
	"context"
	"encoding/json"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	image "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/mini-maxit/executor/pkg/errors"
)

type DockerClient interface {
	DataVolumeName() string
	CheckDataVolume(ctx context.Context, volumeName, mountPoint string) error
	EnsureImage(ctx context.Context, imageName string) error
	CreateContainer(
		ctx context.Context,
		containerCfg *container.Config,
		hostCfg *container.HostConfig,
		name string,
	) (string, error)
	AttachStdin(ctx context.Context, containerID string) (types.HijackedResponse, error)
	StartContainer(ctx context.Context, containerID string) error
	ContainerWait(
		ctx context.Context,
		containerID string,
		condition container.WaitCondition,
	) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error)
	// PeakMemory samples memory usage until the container stops or ctx is done and
	// returns the highest value seen, in bytes.
	PeakMemory(ctx context.Context, containerID string) (uint64, error)
	InspectContainer(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string) error
}

type dockerClient struct {
	cli        *client.Client
	volumeName string
}

// NewDockerClient connects to the daemon from the environment. When volumeName is
// set the worker is expected to run in a container with that volume mounted at
// mountPoint.
func NewDockerClient(volumeName, mountPoint string) (DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	dc := &dockerClient{cli: cli, volumeName: volumeName}
	if volumeName != "" {
		if err := dc.CheckDataVolume(context.Background(), volumeName, mountPoint); err != nil {
			return nil, err
		}
	}

	return dc, nil
}

func (d *dockerClient) DataVolumeName() string { return d.volumeName }

func (d *dockerClient) CheckDataVolume(ctx context.Context, volumeName, mountPoint string) error {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return err
	}

	for _, c := range containers {
		for _, m := range c.Mounts {
			if m.Name == volumeName && m.Destination == mountPoint {
				return nil
			}
		}
	}

	return errors.ErrVolumeNotMounted
}

func (d *dockerClient) EnsureImage(ctx context.Context, imageName string) error {
	_, err := d.cli.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return err
	}

	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}

func (d *dockerClient) CreateContainer(
	ctx context.Context,
	containerCfg *container.Config,
	hostCfg *container.HostConfig,
	name string,
) (string, error) {
	resp, err := d.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *dockerClient) AttachStdin(ctx context.Context, containerID string) (types.HijackedResponse, error) {
	return d.cli.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdin:  true,
	})
}

func (d *dockerClient) StartContainer(ctx context.Context, containerID string) error {
	return d.cli.ContainerStart(ctx, containerID, container.StartOptions{})
}

func (d *dockerClient) ContainerWait(
	ctx context.Context,
	containerID string,
	condition container.WaitCondition,
) (<-chan container.WaitResponse, <-chan error) {
	return d.cli.ContainerWait(ctx, containerID, condition)
}

func (d *dockerClient) ContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error) {
	return d.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
}

func (d *dockerClient) PeakMemory(ctx context.Context, containerID string) (uint64, error) {
	stats, err := d.cli.ContainerStats(ctx, containerID, true)
	if err != nil {
		return 0, err
	}
	defer stats.Body.Close()

	var peak uint64
	dec := json.NewDecoder(stats.Body)
	for {
		var s container.StatsResponse
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return peak, nil
			}
			return peak, err
		}
		peak = max(peak, s.MemoryStats.Usage, s.MemoryStats.MaxUsage)
	}
}

func (d *dockerClient) InspectContainer(ctx context.Context, containerID string) (container.InspectResponse, error) {
	return d.cli.ContainerInspect(ctx, containerID)
}

func (d *dockerClient) ContainerKill(ctx context.Context, containerID, signal string) error {
	return d.cli.ContainerKill(ctx, containerID, signal)
}

func (d *dockerClient) ContainerRemove(ctx context.Context, containerID string) error {
	return d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
}
