// Package logger provides structured logging for the pipeline engine,
// built on zerolog.
//
//	log := logger.NewDefault("mediakit")
//	log.WithComponent("engine").Info("pipeline finished",
//	    logger.Fields("run_id", id, "status", status))
package logger
