package model

// Decorator adjusts a parsed model configuration before validation runs.
// Widget resolution is the primary use.
type Decorator interface {
	Decorate(*ModelConfig) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*ModelConfig) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(cfg *ModelConfig) error {
	return fn(cfg)
}
