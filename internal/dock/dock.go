// Copyright 2024 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build docker
// +build docker

// Package dock starts database containers for integration tests.
package dock

import (
	"fmt"
	"math/rand"
	"net"
	"runtime"
	"strconv"
	"testing"
	"time"

	docker "github.com/fsouza/go-dockerclient"
)

var (
	Address = `unix:///var/run/docker.sock`

	// Attempts and Interval bound the time to wait for a container to accept connections.
	Attempts = 30
	Interval = 2 * time.Second
)

type Config struct {
	docker.Config
}

const localhost = "127.0.0.1"

// container is a started container that is removed by Close.
type container struct {
	cli *docker.Client
	id  string
	ip  string
}

func (c *container) Close() {
	c.cli.RemoveContainer(docker.RemoveContainerOptions{
		ID:            c.id,
		Force:         true,
		RemoveVolumes: true,
	})
}

func start(t testing.TB, conf *docker.Config, host *docker.HostConfig) *container {
	if testing.Short() {
		t.SkipNow()
	}
	cli, err := docker.NewClient(Address)
	if err != nil {
		t.Fatal(err)
	}
	// pulls only if the image is missing locally
	if _, err := cli.InspectImage(conf.Image); err != nil {
		if err := cli.PullImage(docker.PullImageOptions{Repository: conf.Image}, docker.AuthConfiguration{}); err != nil {
			t.Skip(err)
		}
	}
	cont, err := cli.CreateContainer(docker.CreateContainerOptions{
		Config:     conf,
		HostConfig: host,
	})
	if err != nil {
		t.Skip(err)
	}
	c := &container{cli: cli, id: cont.ID}
	if err := cli.StartContainer(cont.ID, host); err != nil {
		c.Close()
		t.Skip(err)
	}
	info, err := cli.InspectContainer(cont.ID)
	if err != nil {
		c.Close()
		t.Skip(err)
	}
	c.ip = info.NetworkSettings.IPAddress
	return c
}

func freePort() int {
	const (
		min = 10000
		max = 30000
	)
	for {
		port := min + rand.Intn(max-min)
		c, err := net.DialTimeout("tcp", net.JoinHostPort(localhost, strconv.Itoa(port)), time.Second)
		if err != nil {
			return port
		}
		c.Close()
	}
}

// RunAndWait starts a container and waits until check succeeds for the
// address of the given container port. A nil check waits for the port
// to accept TCP connections.
func RunAndWait(t testing.TB, conf Config, port string, check func(addr string) bool) (addr string, closer func()) {
	cconf := conf.Config
	host := &docker.HostConfig{}
	hostPort := port
	if runtime.GOOS != "linux" {
		// containers run in a VM; publish the port on localhost
		hostPort = strconv.Itoa(freePort())
		host.PortBindings = map[docker.Port][]docker.PortBinding{
			docker.Port(port + "/tcp"): {{HostIP: localhost, HostPort: hostPort}},
		}
	}
	c := start(t, &cconf, host)
	ip := c.ip
	if runtime.GOOS != "linux" {
		ip = localhost
	}
	addr = net.JoinHostPort(ip, hostPort)
	if check == nil {
		check = portOpen
	}
	for i := 0; i < Attempts; i++ {
		if check(addr) {
			return addr, c.Close
		}
		time.Sleep(Interval)
	}
	c.Close()
	t.Fatal(fmt.Sprintf("container %s is not ready at %s", conf.Image, addr))
	return "", nil
}

func portOpen(addr string) bool {
	c, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return false
	}
	c.Close()
	return true
}
