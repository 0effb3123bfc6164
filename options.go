package fits

// openConfig holds Open's tunables, set via OpenOption.
type openConfig struct {
	queueDepth int
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

// WithReadQueueDepth bounds how many async reads may be outstanding on
// the returned Reader's engine before AsyncReadAt blocks.
func WithReadQueueDepth(n int) OpenOption {
	return func(c *openConfig) { c.queueDepth = n }
}

// createConfig holds Create's tunables, set via CreateOption.
type createConfig struct {
	atomic     bool
	queueDepth int
}

// CreateOption configures Create.
type CreateOption func(*createConfig)

// WithAtomicCreate stages the new file under a temp name in the target
// directory and only publishes it at the requested path once every HDU
// has been written successfully, so a failed or interrupted Create
// never leaves a partial file visible at the target path.
func WithAtomicCreate() CreateOption {
	return func(c *createConfig) { c.atomic = true }
}

// WithWriteQueueDepth bounds how many async writes may be outstanding
// on the returned Writer's engine before AsyncWriteAt blocks.
func WithWriteQueueDepth(n int) CreateOption {
	return func(c *createConfig) { c.queueDepth = n }
}
