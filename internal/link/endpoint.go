package link

import (
	"net"
	"strings"

	"github.com/pkg/errors"
)

type Network string

const (
	NetworkUnix Network = "unix"
	NetworkTCP  Network = "tcp"
)

const tcpScheme = "tcp://"

// Endpoint is the resolved transport target. A connection string of the form
// "tcp://host:port" selects TCP; anything else is taken as a filesystem path
// to a unix domain socket.
type Endpoint struct {
	Network Network
	Address string
}

func ParseEndpoint(target string) (Endpoint, error) {
	if strings.HasPrefix(target, tcpScheme) {
		addr := strings.TrimPrefix(target, tcpScheme)
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return Endpoint{}, errors.Wrapf(err, "invalid tcp endpoint %q", target)
		}
		if host == "" || port == "" {
			return Endpoint{}, errors.Errorf("invalid tcp endpoint %q: missing host or port", target)
		}
		return Endpoint{Network: NetworkTCP, Address: addr}, nil
	}
	if target == "" {
		return Endpoint{}, errors.New("empty socket path")
	}
	return Endpoint{Network: NetworkUnix, Address: target}, nil
}

// Dial opens a stream socket to the endpoint, blocking until connected or the
// transport call fails.
func (e Endpoint) Dial() (net.Conn, error) {
	conn, err := net.Dial(string(e.Network), e.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", e)
	}
	return conn, nil
}

func (e Endpoint) String() string {
	if e.Network == NetworkTCP {
		return tcpScheme + e.Address
	}
	return e.Address
}
