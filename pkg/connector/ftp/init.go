// Package ftp is the FTP file connector: a reader that enumerates remote
// files into read sub-tasks and a writer that plans write sub-tasks with an
// optional manifest. Importing the package registers it under the "ftp" tag.
package ftp

import (
	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

// Tag is the registry tag of the connector.
const Tag = "ftp"

func init() {
	if err := registry.Register(Tag, Factory()); err != nil {
		panic(err)
	}
}

// Factory returns the registration of the connector.
func Factory() registry.Factory {
	return registry.Factory{
		Reader: func(cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Reader, error) {
			r, err := NewReader(cfg, fs)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		Writer: func(cfg *config.ConnectorConfig, fs remote.FileSystem) (core.Writer, error) {
			w, err := NewWriter(cfg, fs)
			if err != nil {
				return nil, err
			}
			return w, nil
		},
		Info: registry.ConnectorInfo{
			Name:        Tag,
			Description: "Reads and writes delimited files on FTP servers and object stores",
			Version:     "1.0.0",
			Transports: []string{
				config.TransportFTP,
				config.TransportS3,
				config.TransportGCS,
				config.TransportLocal,
				config.TransportMemory,
			},
		},
	}
}
