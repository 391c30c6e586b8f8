package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/corvallis-moor/telnet"
)

// ansiConfig is the YAML-friendly mirror of telnet.AnsiConfig: a config file
// shouldn't need to know the zero value of ColorMode is "no color" or spell
// out every segment class it wants decoded just to get TrueColor SGR.
type ansiConfig struct {
	DecodeC1  bool   `yaml:"decodeC1"`
	DecodeCSI bool   `yaml:"decodeCSI"`
	DecodeSGR bool   `yaml:"decodeSGR"`
	DecodeOSC bool   `yaml:"decodeOSC"`
	DecodeDCS bool   `yaml:"decodeDCS"`
	DecodeSOS bool   `yaml:"decodeSOS"`
	DecodePM  bool   `yaml:"decodePM"`
	DecodeAPC bool   `yaml:"decodeAPC"`
	ColorMode string `yaml:"colorMode"`
}

func (c ansiConfig) toAnsiConfig() telnet.AnsiConfig {
	mode := telnet.ColorNone
	switch c.ColorMode {
	case "16":
		mode = telnet.ColorSixteen
	case "256":
		mode = telnet.ColorTwoFiftySix
	case "truecolor", "":
		mode = telnet.ColorTrueColor
	}

	return telnet.AnsiConfig{
		DecodeC1:  c.DecodeC1,
		DecodeCSI: c.DecodeCSI,
		DecodeSGR: c.DecodeSGR,
		DecodeOSC: c.DecodeOSC,
		DecodeDCS: c.DecodeDCS,
		DecodeSOS: c.DecodeSOS,
		DecodePM:  c.DecodePM,
		DecodeAPC: c.DecodeAPC,
		ColorMode: mode,
	}
}

// serverConfig is the top-level shape of telnetd.yaml.
type serverConfig struct {
	ListenAddress     string     `yaml:"listenAddress"`
	AllowAnyCharset   bool       `yaml:"allowAnyCharset"`
	PreferredCharsets []string   `yaml:"preferredCharsets"`
	Banner            string     `yaml:"banner"`
	AnsiConfig        ansiConfig `yaml:"ansi"`
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		ListenAddress:     ":2323",
		AllowAnyCharset:   false,
		PreferredCharsets: []string{"UTF-8"},
		Banner:            "Welcome!\r\n",
		AnsiConfig: ansiConfig{
			DecodeC1:  true,
			DecodeCSI: true,
			DecodeSGR: true,
			DecodeOSC: true,
			DecodeDCS: true,
			DecodeSOS: true,
			DecodePM:  true,
			DecodeAPC: true,
			ColorMode: "truecolor",
		},
	}
}

// loadConfig reads and parses configPath. A missing file is not an error:
// it falls back to defaultServerConfig so telnetd can run with zero setup.
func loadConfig(configPath string) (serverConfig, error) {
	cfg := defaultServerConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return serverConfig{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return serverConfig{}, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	return cfg, nil
}
