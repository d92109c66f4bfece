//go:build integration

//nolint:misspell // Mosquitto is the official Eclipse project name
package containers

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const anonymousMosquittoConf = `listener 1883
allow_anonymous true
`

// MosquittoContainer is a running Mosquitto broker.
type MosquittoContainer struct {
	container  testcontainers.Container
	brokerURL  string
	configFile string
}

// MosquittoConfig configures NewMosquittoContainer.
type MosquittoConfig struct {
	ImageTag string
}

// NewMosquittoContainer starts a broker that accepts anonymous clients.
func NewMosquittoContainer(ctx context.Context, config *MosquittoConfig) (*MosquittoContainer, error) {
	tag := "2.0"
	if config != nil && config.ImageTag != "" {
		tag = config.ImageTag
	}

	confFile, err := os.CreateTemp("", "mosquitto-*.conf")
	if err != nil {
		return nil, fmt.Errorf("failed to create mosquitto config: %w", err)
	}
	_, werr := confFile.WriteString(anonymousMosquittoConf)
	cerr := confFile.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(confFile.Name())
		return nil, fmt.Errorf("failed to write mosquitto config: %w", firstErr(werr, cerr))
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "eclipse-mosquitto:" + tag,
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      confFile.Name(),
				ContainerFilePath: "/mosquitto-no-auth.conf",
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForLog("mosquitto version").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		_ = os.Remove(confFile.Name())
		return nil, fmt.Errorf("failed to start Mosquitto container: %w", err)
	}

	mc := &MosquittoContainer{container: c, configFile: confFile.Name()}
	fail := func(err error) (*MosquittoContainer, error) {
		_ = mc.Terminate(context.Background())
		return nil, err
	}

	host, err := c.Host(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to get container host: %w", err))
	}
	port, err := c.MappedPort(ctx, "1883")
	if err != nil {
		return fail(fmt.Errorf("failed to get mapped port: %w", err))
	}
	addr := net.JoinHostPort(host, port.Port())
	mc.brokerURL = "tcp://" + addr

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := WaitForTCP(waitCtx, addr); err != nil {
		return fail(err)
	}
	return mc, nil
}

// GetBrokerURL returns the broker URL, e.g. "tcp://localhost:32771".
func (c *MosquittoContainer) GetBrokerURL(t *testing.T) string {
	t.Helper()
	if c.brokerURL == "" {
		t.Fatal("broker URL is empty")
	}
	return c.brokerURL
}

// CreateClient connects a raw paho client. The caller disconnects it.
func (c *MosquittoContainer) CreateClient(clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect timeout for client %s", clientID)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect client: %w", err)
	}
	return client, nil
}

// Terminate removes the container and its temporary config file.
func (c *MosquittoContainer) Terminate(ctx context.Context) error {
	var err error
	if c.container != nil {
		if terr := c.container.Terminate(ctx); terr != nil {
			err = fmt.Errorf("failed to terminate container: %w", terr)
		}
	}
	if c.configFile != "" {
		_ = os.Remove(c.configFile)
	}
	return err
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
