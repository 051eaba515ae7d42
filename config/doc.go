// Package config defines the JSON configuration of a component host:
// host identity, session policy, metrics exposition and logging. Loading
// applies defaults first, so a partial file only overrides what it names.
package config
