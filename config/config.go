package config

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/adrianliechti/paperflow/pkg/client"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	URL   string
	Token string

	// MaxAttempts bounds the pending polls of a single job
	MaxAttempts int

	// Concurrency of per-document stages
	Concurrency int

	Limiter *rate.Limiter
	Proxy   *proxyConfig

	DetectDocuments *bool

	Languages []string
	PageSize  client.PageSize
}

type configFile struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	MaxAttempts int `yaml:"max_attempts"`
	Concurrency int `yaml:"concurrency"`

	Limit *int         `yaml:"limit"`
	Proxy *proxyConfig `yaml:"proxy"`

	DetectDocuments *bool `yaml:"detect_documents"`

	Languages []string `yaml:"languages"`
	PageSize  string   `yaml:"page_size"`
}

// Parse reads a YAML configuration file. Environment variables in the file
// are expanded and unknown fields are rejected.
func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	pageSize, err := parsePageSize(file.PageSize)

	if err != nil {
		return nil, err
	}

	if file.MaxAttempts < 0 {
		return nil, errors.New("max_attempts must not be negative")
	}

	if file.Concurrency < 0 {
		return nil, errors.New("concurrency must not be negative")
	}

	c := &Config{
		URL:   file.URL,
		Token: file.Token,

		MaxAttempts: file.MaxAttempts,
		Concurrency: file.Concurrency,

		Limiter: createLimiter(file.Limit),
		Proxy:   file.Proxy,

		DetectDocuments: file.DetectDocuments,

		Languages: file.Languages,
		PageSize:  pageSize,
	}

	return c, nil
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil || *limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}

func parsePageSize(val string) (client.PageSize, error) {
	switch strings.ToLower(val) {
	case "":
		return "", nil

	case string(client.PageSizeFit):
		return client.PageSizeFit, nil

	case string(client.PageSizeA4):
		return client.PageSizeA4, nil

	case string(client.PageSizeLetter):
		return client.PageSizeLetter, nil
	}

	return "", errors.New("invalid page size: " + val)
}
