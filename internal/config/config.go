package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	DB struct {
		DSN            string `mapstructure:"dsn"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Storage struct {
		// Provider selects the object store adapter: "minio" or "cloudinary".
		Provider      string `mapstructure:"provider"`
		Bucket        string `mapstructure:"bucket"`
		PublicBaseURL string `mapstructure:"public_base_url"`
		PublicRead    bool   `mapstructure:"public_read"`
	} `mapstructure:"storage"`
	MinIO struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
		Region    string `mapstructure:"region"`
	} `mapstructure:"minio"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Resolver struct {
		SignedURLTTL   time.Duration `mapstructure:"signed_url_ttl"`
		CacheTTLMargin time.Duration `mapstructure:"cache_ttl_margin"`
		ListLimit      int           `mapstructure:"list_limit"`
	} `mapstructure:"resolver"`
	Jaeger struct {
		Enabled      bool   `mapstructure:"enabled"`
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

func setDefaults() {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("db.migrations_path", "file://migrations")
	viper.SetDefault("kafka.group_id", "disclosure-snapshot-group")
	viper.SetDefault("auth.token_lifespan", 24*time.Hour)
	viper.SetDefault("storage.provider", "minio")
	viper.SetDefault("storage.bucket", "talent-bank")
	viper.SetDefault("resolver.signed_url_ttl", time.Hour)
	viper.SetDefault("resolver.cache_ttl_margin", time.Minute)
	viper.SetDefault("resolver.list_limit", 100)
}

// LoadConfig reads config.yaml from the given directories (the working
// directory when none are given), then overlays environment variables.
func LoadConfig(paths ...string) (cfg Config, err error) {

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err = viper.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	setDefaults()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("app.port", "APP_PORT")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("db.dsn", "DB_DSN")
	viper.BindEnv("db.migrations_path", "DB_MIGRATIONS_PATH")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	viper.BindEnv("storage.provider", "STORAGE_PROVIDER")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.public_base_url", "STORAGE_PUBLIC_BASE_URL")
	viper.BindEnv("storage.public_read", "STORAGE_PUBLIC_READ")

	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.BindEnv("minio.region", "MINIO_REGION")

	viper.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	viper.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	viper.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	viper.BindEnv("resolver.signed_url_ttl", "RESOLVER_SIGNED_URL_TTL")
	viper.BindEnv("resolver.cache_ttl_margin", "RESOLVER_CACHE_TTL_MARGIN")
	viper.BindEnv("resolver.list_limit", "RESOLVER_LIST_LIMIT")

	viper.BindEnv("jaeger.enabled", "JAEGER_ENABLED")
	viper.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")

	err = viper.Unmarshal(&cfg)
	return
}
