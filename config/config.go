// Package config defines the command line flags for a tree survey. Every flag can also be set with a
// TREE_SURVEY_{FLAG} environment variable, optionally read from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/sfomuseum/go-tree-survey/common"
	"github.com/sfomuseum/go-tree-survey/operations/survey"
	"github.com/sfomuseum/go-tree-survey/summary"
	"github.com/sfomuseum/go-tree-survey/tree"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is prepended to the upper-cased, underscored flag name to derive its environment variable.
const EnvPrefix string = "TREE_SURVEY_"

// Options holds the (unparsed) configuration for a survey.
type Options struct {
	PhotosURI          string
	Pattern            string
	GirthsURI          string
	GirthsFile         string
	OutputURI          string
	FeaturesURI        string
	PreviousURI        string
	Join               string
	MissingLocation    string
	InvalidCoordinates string
	Quantile           string
	SD                 string
	Bins               int
	Timezone           string
	Thumbnails         bool
	ThumbnailSize      uint
	HashImages         bool
	PublicRead         bool
	Verbose            bool
}

// Settings are the typed values derived from Options by Validate.
type Settings struct {
	Join               tree.JoinMode
	MissingLocation    survey.Policy
	InvalidCoordinates survey.Policy
	Summary            *summary.Options
	Location           *time.Location
}

// LoadEnv reads environment variables from the .env files in paths. Files that do not exist are
// skipped; variables already present in the environment are not overwritten.
func LoadEnv(paths ...string) error {

	for _, path := range paths {

		_, err := os.Stat(path)

		if err != nil {
			slog.Debug("No .env file, falling back to environment variables", "path", path)
			continue
		}

		err = godotenv.Load(path)

		if err != nil {
			return fmt.Errorf("Failed to load %s, %w", path, err)
		}
	}

	return nil
}

// EnvVar returns the environment variable for flag name.
func EnvVar(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// NewFlagSet returns a flag.FlagSet, whose defaults are read from the environment, and the Options it populates.
func NewFlagSet(name string) (*flag.FlagSet, *Options) {

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	opts := &Options{}

	fs.StringVar(&opts.PhotosURI, "photos", getEnv("photos", ""), "A valid gocloud.dev/blob URI for the directory of tree photographs, e.g. file:///path/to/photos.")
	fs.StringVar(&opts.Pattern, "pattern", getEnv("pattern", "*"), "A filename glob used to select photographs (case-insensitive).")
	fs.StringVar(&opts.GirthsURI, "girths", getEnv("girths", ""), "A valid whosonfirst/go-reader URI for the directory containing the girths CSV, e.g. fs:///path/to/data.")
	fs.StringVar(&opts.GirthsFile, "girths-file", getEnv("girths-file", "girths.csv"), "The name of the girths CSV.")
	fs.StringVar(&opts.OutputURI, "output", getEnv("output", ""), "A valid gocloud.dev/blob URI where maps, charts and tables are published.")
	fs.StringVar(&opts.FeaturesURI, "features", getEnv("features", ""), "An optional whosonfirst/go-writer URI where per-tree GeoJSON features are written.")
	fs.StringVar(&opts.PreviousURI, "previous", getEnv("previous", ""), "An optional gocloud.dev/blob URI of the features written by an earlier survey, used to detect photographs surveyed twice.")
	fs.StringVar(&opts.Join, "join", getEnv("join", string(tree.JoinAuto)), "How girth rows are paired with photographs: auto, keyed or positional.")
	fs.StringVar(&opts.MissingLocation, "missing-location", getEnv("missing-location", string(survey.PolicySkip)), "What to do with photographs that have no GPS location: skip or fail.")
	fs.StringVar(&opts.InvalidCoordinates, "invalid-coordinates", getEnv("invalid-coordinates", string(survey.PolicyFail)), "What to do with photographs whose GPS location is out of range: skip or fail.")
	fs.StringVar(&opts.Quantile, "quantile", getEnv("quantile", string(summary.QuantileLinear)), "The quartile method: linear, empirical or lininterp.")
	fs.StringVar(&opts.SD, "sd", getEnv("sd", string(summary.DeviationSample)), "The standard deviation estimator: sample or population.")
	fs.IntVar(&opts.Bins, "bins", getEnvInt("bins", 0), "The number of histogram bins. Zero means Sturges' rule.")
	fs.StringVar(&opts.Timezone, "timezone", getEnv("timezone", "UTC"), "The time zone used to interpret EXIF timestamps.")
	fs.BoolVar(&opts.Thumbnails, "thumbnails", getEnvBool("thumbnails", false), "Publish thumbnails for map popups.")
	fs.UintVar(&opts.ThumbnailSize, "thumbnail-size", uint(getEnvInt("thumbnail-size", int(common.DefaultThumbnailSize))), "The maximum width or height of thumbnails, in pixels.")
	fs.BoolVar(&opts.HashImages, "hash-images", getEnvBool("hash-images", false), "Derive perceptual image hashes and warn about photographs that look alike.")
	fs.BoolVar(&opts.PublicRead, "public-read", getEnvBool("public-read", false), "Publish outputs with a public-read ACL (S3 only).")
	fs.BoolVar(&opts.Verbose, "verbose", getEnvBool("verbose", false), "Enable verbose (debug level) logging.")

	return fs, opts
}

// Validate checks opts and returns the typed Settings it describes.
func (opts *Options) Validate() (*Settings, error) {

	if opts.PhotosURI == "" {
		return nil, errors.New("Missing -photos URI")
	}

	if opts.GirthsURI == "" {
		return nil, errors.New("Missing -girths URI")
	}

	if opts.OutputURI == "" {
		return nil, errors.New("Missing -output URI")
	}

	if opts.Bins < 0 {
		return nil, fmt.Errorf("Invalid -bins value %d", opts.Bins)
	}

	join, err := tree.ParseJoinMode(opts.Join)

	if err != nil {
		return nil, err
	}

	missing_location, err := survey.ParsePolicy(opts.MissingLocation, survey.PolicySkip)

	if err != nil {
		return nil, fmt.Errorf("Invalid -missing-location, %w", err)
	}

	invalid_coords, err := survey.ParsePolicy(opts.InvalidCoordinates, survey.PolicyFail)

	if err != nil {
		return nil, fmt.Errorf("Invalid -invalid-coordinates, %w", err)
	}

	quantile, err := summary.ParseQuantileMethod(opts.Quantile)

	if err != nil {
		return nil, err
	}

	sd, err := summary.ParseDeviation(opts.SD)

	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(opts.Timezone)

	if err != nil {
		return nil, fmt.Errorf("Invalid -timezone '%s', %w", opts.Timezone, err)
	}

	s := &Settings{
		Join:               join,
		MissingLocation:    missing_location,
		InvalidCoordinates: invalid_coords,
		Summary: &summary.Options{
			Quantile:  quantile,
			Deviation: sd,
		},
		Location: loc,
	}

	return s, nil
}

func getEnv(name string, fallback string) string {

	if val := os.Getenv(EnvVar(name)); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(name string, fallback int) int {

	if val := os.Getenv(EnvVar(name)); val != "" {

		n, err := strconv.Atoi(val)

		if err == nil {
			return n
		}

		slog.Warn("Ignoring invalid integer environment variable", "name", EnvVar(name), "value", val)
	}

	return fallback
}

func getEnvBool(name string, fallback bool) bool {

	if val := os.Getenv(EnvVar(name)); val != "" {

		b, err := strconv.ParseBool(val)

		if err == nil {
			return b
		}

		slog.Warn("Ignoring invalid boolean environment variable", "name", EnvVar(name), "value", val)
	}

	return fallback
}
