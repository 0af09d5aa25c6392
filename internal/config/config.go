package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultTokenTTL = 24 * time.Hour

type (
	Container struct {
		App     *App
		Token   *Token
		DB      *DB
		Mongo   *Mongo
		HTTP    *HTTP
		Redis   *Redis
		GRPC    *GRPC
		Storage *Storage
		Admin   *Admin
	}

	App struct {
		Name string
		Env  string
	}

	Token struct {
		Secret   string
		Duration string
	}

	DB struct {
		Driver   string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Mongo struct {
		URI      string
		Database string
	}

	HTTP struct {
		Env            string
		Port           string
		AllowedOrigins string
		URL            string
	}

	Redis struct {
		Address  string
		Password string
	}

	GRPC struct {
		Port string
	}

	Storage struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    string
		PublicURL string
	}

	Admin struct {
		Email    string
		Password string
	}
)

func New() (*Container, error) {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	app := &App{
		Name: getEnv("APP_NAME", "webike-marketplace"),
		Env:  getEnv("APP_ENV", "development"),
	}

	token := &Token{
		Secret:   os.Getenv("TOKEN_SECRET"),
		Duration: os.Getenv("TOKEN_DURATION"),
	}
	if token.Secret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}

	db := &DB{
		Driver:   getEnv("DB_DRIVER", "postgres"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	mongo := &Mongo{
		URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGODB_DATABASE", "webike"),
	}

	http := &HTTP{
		Port:           getEnv("HTTP_PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		URL:            os.Getenv("HTTP_URL"),
		Env:            app.Env,
	}

	redis := &Redis{
		Address:  os.Getenv("REDIS_ADDRESS"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}

	grpc := &GRPC{
		Port: os.Getenv("GRPC_PORT"),
	}

	storage := &Storage{
		Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		Bucket:    getEnv("STORAGE_BUCKET", "webike"),
		UseSSL:    os.Getenv("STORAGE_USE_SSL"),
		PublicURL: os.Getenv("STORAGE_PUBLIC_URL"),
	}

	admin := &Admin{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}

	return &Container{
		App:     app,
		Token:   token,
		DB:      db,
		Mongo:   mongo,
		HTTP:    http,
		Redis:   redis,
		GRPC:    grpc,
		Storage: storage,
		Admin:   admin,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TTL parses Duration ("24h", "90m"). Invalid or empty values fall back to 24h.
func (t *Token) TTL() time.Duration {
	d, err := time.ParseDuration(t.Duration)
	if err != nil || d <= 0 {
		return defaultTokenTTL
	}
	return d
}

func (d *DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (g *GRPC) PortInt() int {
	port, err := strconv.Atoi(g.Port)
	if err != nil {
		return 50052 // дефолт если ошибка
	}
	return port
}

// SSL reports whether the object storage endpoint speaks https.
func (s *Storage) SSL() bool {
	ok, _ := strconv.ParseBool(s.UseSSL)
	return ok
}

// Enabled is false when no endpoint is configured; uploads then stay in memory.
func (s *Storage) Enabled() bool {
	return s.Endpoint != ""
}
