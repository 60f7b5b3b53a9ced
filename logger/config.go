package logger

// Config is decoded from the log section of the service config.
// OutputFile is "stdout", "stderr" or a file path; a file also tees to stdout.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}
