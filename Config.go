/*
File Name:  Config.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	_ "embed" // required for embedding the default config file
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration: ports, log destination, and the
// seed list of known server addresses a client may try before falling
// back to broadcast discovery. The card/deck configuration file format
// itself is a separate concern, out of scope here.
type Config struct {
	LogFile string `yaml:"LogFile"`

	DiscoveryPort uint16 `yaml:"DiscoveryPort"`
	ControlPort   uint16 `yaml:"ControlPort"`

	Listen        []string `yaml:"Listen"` // IP:Port combinations to bind discovery/control listeners to
	ListenWorkers int      `yaml:"ListenWorkers"`

	SeedList []string `yaml:"SeedList"` // known server "ip:port" addresses, tried via unicast before broadcast

	APIListen []string `yaml:"APIListen"` // IP:Port combinations for the local webapi surface; empty disables it
}

//go:embed "Config Default.yaml"
var defaultConfig []byte

// LoadConfig reads a YAML configuration file into configOut. If the file
// does not exist or is empty, the embedded default is used instead. The
// returned status is one of the ExitX codes; ExitSuccess indicates the
// caller may proceed normally (the zero value, reused here since loading
// a config is not itself a shutdown condition).
func LoadConfig(filename string, configOut *Config) (status int, err error) {
	var configData []byte

	stats, statErr := os.Stat(filename)
	switch {
	case statErr != nil && os.IsNotExist(statErr):
		configData = defaultConfig
	case statErr != nil:
		return ExitErrorConfigAccess, statErr
	case stats.Size() == 0:
		configData = defaultConfig
	default:
		if configData, err = ioutil.ReadFile(filename); err != nil {
			return ExitErrorConfigRead, err
		}
	}

	if err = yaml.Unmarshal(configData, configOut); err != nil {
		return ExitErrorConfigParse, err
	}

	applyConfigDefaults(configOut)

	return ExitSuccess, nil
}

func applyConfigDefaults(c *Config) {
	if c.DiscoveryPort == 0 {
		c.DiscoveryPort = DefaultDiscoveryPort
	}
	if c.ControlPort == 0 {
		c.ControlPort = DefaultControlPort
	}
	if c.LogFile == "" {
		c.LogFile = "tablesight.log"
	}
	if c.ListenWorkers == 0 {
		c.ListenWorkers = 2
	}
}
