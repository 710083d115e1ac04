package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
// 启动时构建一次，之后以指针传递给各组件，不再修改
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storageconfig"`
	Share         ShareConfig         `mapstructure:"share"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	// 模型搜索索引名，为空时使用 "models"
	ModelIndex string `mapstructure:"model_index"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"` // 使用 time.Duration 更清晰
	Issuer    string        `mapstructure:"issuer"`
}

type StorageConfig struct {
	Type       string `mapstructure:"type"` // minio / aliyun_oss
	BucketName string `mapstructure:"bucket_name"`
}

// ShareConfig 分享链接配置
type ShareConfig struct {
	// BaseURL 用于拼接分享链接，例如 http://localhost:8080
	BaseURL string `mapstructure:"base_url"`
	// TTL 分享链接有效期，默认 720h（30天）
	TTL time.Duration `mapstructure:"ttl"`
}

// UploadConfig 模型文件上传限制
type UploadConfig struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"` // 字节
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// DefaultShareTTL 未配置时的分享链接有效期
const DefaultShareTTL = 30 * 24 * time.Hour

// ShareTTL 返回配置的分享有效期，未配置时回退到 30 天
func (c *ShareConfig) ShareTTL() time.Duration {
	if c.TTL <= 0 {
		return DefaultShareTTL
	}
	return c.TTL
}

// ModelIndexName 返回模型搜索索引名
func (c *ElasticsearchConfig) ModelIndexName() string {
	if c.ModelIndex == "" {
		return "models"
	}
	return c.ModelIndex
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")            // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")              // 配置文件类型
	viper.AddConfigPath(".")                 // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")         // 也可以添加其他路径
	viper.AddConfigPath("/etc/go-modelhub/") // 生产环境常见路径

	// 读取环境变量，例如 GO_MODELHUB_SERVER_PORT 对应 server.port
	viper.SetEnvPrefix("GO_MODELHUB")
	viper.AutomaticEnv()

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	// 默认值（配置文件和环境变量都没有时生效）
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("share.base_url", "http://localhost:8080")
	viper.SetDefault("share.ttl", DefaultShareTTL)
	viper.SetDefault("upload.max_file_size", 50*1024*1024) // 50MB
	viper.SetDefault("upload.allowed_extensions", []string{".glb"})
	viper.SetDefault("storageconfig.type", "minio")
	viper.SetDefault("jwt.expires_in", 24*time.Hour)
	viper.SetDefault("jwt.issuer", "go-modelhub")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到不是致命错误，可以依赖环境变量或默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			log.Fatalf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
