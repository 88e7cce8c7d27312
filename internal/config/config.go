package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"doorcheck/entity"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverMySql    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	SeedFile string `yaml:"seed_file" env:"STORE_SEED_FILE" env-default:""`
}

type MySqlConfig struct {
	HostName string `yaml:"hostname" env:"MYSQL_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MYSQL_PORT" env-default:"3306"`
	UserName string `yaml:"username" env:"MYSQL_USER" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MYSQL_DATABASE" env-default:""`
	Prefix   string `yaml:"prefix" env-default:""`
}

type PostgresConfig struct {
	Url string `yaml:"url" env:"DATABASE_URL" env-default:""`
}

type MongoConfig struct {
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"doorcheck"`
}

type CheckInConfig struct {
	TimeoutSec  int `yaml:"timeout_sec" env-default:"5"`
	RecentLimit int `yaml:"recent_limit" env-default:"20"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	AdminIds []int64 `yaml:"admin_ids"`
	LogLevel int     `yaml:"log_level" env-default:"8"`
}

type Config struct {
	Env       string            `yaml:"env" env:"ENV" env-default:"local"`
	Location  string            `yaml:"location" env-default:"UTC"`
	Listen    Listen            `yaml:"listen"`
	Store     StoreConfig       `yaml:"store"`
	MySql     MySqlConfig       `yaml:"mysql"`
	Postgres  PostgresConfig    `yaml:"postgres"`
	Mongo     MongoConfig       `yaml:"mongo"`
	CheckIn   CheckInConfig     `yaml:"checkin"`
	Telegram  TelegramConfig    `yaml:"telegram"`
	Operators []entity.Operator `yaml:"operators"`
}

// CheckInTimeout bounds a single store call made during check-in.
func (c *Config) CheckInTimeout() time.Duration {
	if c.CheckIn.TimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CheckIn.TimeoutSec) * time.Second
}

// TimeLocation is the venue zone used for "checked in today".
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", c.Location, err)
	}
	return loc, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverMySql, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("store.driver %q: want memory, mysql, postgres or mongo", c.Store.Driver)
	}
	if c.Store.Driver == DriverPostgres && c.Postgres.Url == "" {
		return fmt.Errorf("postgres.url is required for the postgres driver")
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Operators))
	for i := range c.Operators {
		op := &c.Operators[i]
		if err := op.Bind(nil); err != nil {
			return fmt.Errorf("operators[%d]: %w", i, err)
		}
		if seen[op.Token] {
			return fmt.Errorf("operators[%d]: duplicate token", i)
		}
		seen[op.Token] = true
	}
	return nil
}

// Load reads the YAML file at path with environment overrides.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		var err error
		instance, err = Load(path)
		if err != nil {
			log.Fatal(err)
		}
	})
	return instance
}
