package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/locator"
)

// fileConfig is the optional YAML config file. Flags given on the command
// line take precedence over it.
type fileConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	Editor      string `yaml:"editor"`
	Timeout     string `yaml:"timeout"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// applyConfigFile fills the settings not given as flags from --config.
func applyConfigFile(cmd *cobra.Command) error {
	if configPath == "" {
		return nil
	}
	fc, err := loadFileConfig(configPath)
	if err != nil {
		return err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if !changed("url") && fc.BaseURL != "" {
		baseURL = fc.BaseURL
	}
	if !changed("access-token") && fc.AccessToken != "" {
		accessToken = fc.AccessToken
	}
	if !changed("editor") && fc.Editor != "" {
		editorCommand = fc.Editor
	}
	if !changed("timeout") && fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in %s: %w", fc.Timeout, configPath, err)
		}
		timeout = d
	}
	return nil
}

// resolveLocator names the survey, answer set and token to work with. The
// link's parameters are read first and explicit flags override them.
func resolveLocator() (locator.Locator, error) {
	query := url.Values{}
	if link != "" {
		u, err := url.Parse(link)
		if err != nil {
			return locator.Locator{}, fmt.Errorf("invalid link: %w", err)
		}
		query = u.Query()
	}
	set := func(param, value string) {
		if value != "" {
			query.Set(param, value)
		}
	}
	set(locator.ParamSurvey, surveyID)
	set(locator.ParamAnswer, answerID)
	set(locator.ParamAccessToken, accessToken)
	return locator.Resolve(query)
}

// storeURL is --url, or the scheme and host of --link.
func storeURL() (string, error) {
	if baseURL != "" {
		return baseURL, nil
	}
	if link != "" {
		u, err := url.Parse(link)
		if err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host, nil
		}
	}
	return "", errors.New("no survey store: use --url or --link")
}

// newStoreClient resolves the locator and builds a client carrying its
// token.
func newStoreClient() (*client.Client, locator.Locator, error) {
	loc, err := resolveLocator()
	if err != nil {
		return nil, loc, err
	}
	base, err := storeURL()
	if err != nil {
		return nil, loc, err
	}
	c, err := client.New(base,
		client.WithAccessToken(loc.AccessToken),
		client.WithTimeout(timeout),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, loc, err
	}
	return c, loc, nil
}
