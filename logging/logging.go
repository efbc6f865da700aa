// Package logging builds the process-wide zap logger. Components receive
// a *zap.SugaredLogger by injection; nothing in this module logs through
// package-level state.
package logging

import "go.uber.org/zap"

func New(dev bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if dev {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}
