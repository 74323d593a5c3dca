package nnet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DataDir is the directory holding the datasets and saved configs, set from the
// MLBENCH_DATA environment variable.
var DataDir = dataDir()

func dataDir() string {
	if dir := os.Getenv("MLBENCH_DATA"); dir != "" {
		return dir
	}
	return "data"
}

// Training configuration settings
type Config struct {
	DataSet       string
	Loss          LossKind
	Optimizer     OptimizerKind
	Eta           float64
	Lambda        float64
	NormalWeights bool
	Shuffle       bool
	TrainBatch    int
	TestBatch     int
	MaxEpoch      int
	TrainFrac     float64
	LogEvery      int
	RandSeed      int64
	DebugLevel    int
	Layers        []LayerConfig
}

// Load network from json file under DataDir
func LoadConfig(name string) (c Config, err error) {
	f, err := os.Open(filepath.Join(DataDir, name))
	if err != nil {
		return c, errors.Wrap(err, "load config")
	}
	defer f.Close()
	fmt.Println("loading network config from", name)
	if err = json.NewDecoder(f).Decode(&c); err != nil {
		return c, errors.Wrapf(err, "decode %s", name)
	}
	return c, c.Validate()
}

// Append layers to the config struct
func (c Config) AddLayers(layers ...ConfigLayer) Config {
	c.Layers = append([]LayerConfig{}, c.Layers...)
	for _, l := range layers {
		c.Layers = append(c.Layers, l.Marshal())
	}
	return c
}

// Save config to JSON file under DataDir. The file is written to a temporary name and renamed
// so a reader never sees a partial file.
func (c Config) Save(name string) error {
	filePath := filepath.Join(DataDir, "."+name)
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "save config")
	}
	fmt.Println("saving network config to", name)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", name)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(filePath, filepath.Join(DataDir, name))
}

// Validate checks the loss, optimizer and layer settings.
func (c Config) Validate() error {
	if _, err := c.Loss.parse(); err != nil {
		return err
	}
	if _, err := c.Optimizer.parse(); err != nil {
		return err
	}
	if c.TrainFrac < 0 || c.TrainFrac > 1 {
		return errors.Errorf("TrainFrac %g outside [0,1]", c.TrainFrac)
	}
	if len(c.Layers) == 0 {
		return errors.New("no layers defined")
	}
	for i, l := range c.Layers {
		if _, err := l.Unmarshal(); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Fields lists the names of the scalar settings in struct order, the layer list is omitted.
func (c Config) Fields() []string {
	var names []string
	st := reflect.TypeOf(c)
	for i := 0; i < st.NumField(); i++ {
		if st.Field(i).Type.Kind() != reflect.Slice {
			names = append(names, st.Field(i).Name)
		}
	}
	return names
}

// Get returns the value of the named setting.
func (c Config) Get(key string) interface{} {
	return reflect.ValueOf(c).FieldByName(key).Interface()
}

func (c Config) String() string {
	var b strings.Builder
	b.WriteString("== Config ==")
	for _, key := range c.Fields() {
		fmt.Fprintf(&b, "\n%-14s: %v", key, c.Get(key))
	}
	if len(c.Layers) > 0 {
		b.WriteString("\n== Network ==")
		for i, layer := range c.Layers {
			fmt.Fprintf(&b, "\n%2d: %s", i, layer)
		}
	}
	return b.String()
}

// field returns the settable struct field for key
func (c *Config) field(key string) (reflect.Value, error) {
	f := reflect.ValueOf(c).Elem().FieldByName(key)
	if !f.IsValid() || f.Kind() == reflect.Slice {
		return f, errors.Errorf("unknown config field %q", key)
	}
	return f, nil
}

// SetString parses val according to the type of the named field and returns the updated config.
func (c Config) SetString(key, val string) (Config, error) {
	f, err := c.field(key)
	if err != nil {
		return c, err
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int64:
		var x int64
		if x, err = strconv.ParseInt(val, 10, 64); err == nil {
			f.SetInt(x)
		}
	case reflect.Float64:
		var x float64
		if x, err = strconv.ParseFloat(val, 64); err == nil {
			f.SetFloat(x)
		}
	case reflect.Bool:
		var x bool
		if x, err = strconv.ParseBool(val); err == nil {
			f.SetBool(x)
		}
	case reflect.String:
		f.SetString(val)
	default:
		err = errors.Errorf("unsupported type %v", f.Kind())
	}
	return c, errors.Wrap(err, key)
}

// SetBool sets the named boolean field.
func (c Config) SetBool(key string, val bool) (Config, error) {
	f, err := c.field(key)
	if err == nil && f.Kind() != reflect.Bool {
		err = errors.Errorf("%s is not a boolean setting", key)
	}
	if err != nil {
		return c, err
	}
	f.SetBool(val)
	return c, nil
}
