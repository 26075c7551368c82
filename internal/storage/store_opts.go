package storage

type fileStoreOptions struct {
	create bool
}

type FileStoreOpt func(*fileStoreOptions)

// WithCreate makes NewFileStore create the store directory when it is missing.
func WithCreate() FileStoreOpt {
	return func(o *fileStoreOptions) {
		o.create = true
	}
}
