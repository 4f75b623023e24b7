package dispatch

const (
	// DefaultWorkers is the number of tasks that may run at once.
	DefaultWorkers = 2
	// DefaultQueueSize is the number of tasks that may wait for a worker.
	DefaultQueueSize = 64
)

// Config configures a Dispatcher.
type Config struct {
	Workers   int `yaml:"workers" mapstructure:"workers" validate:"gte=0,lte=64"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
}
