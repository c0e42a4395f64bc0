// Package errors provides structured error types for better observability
// and programmatic error handling across the build pipeline.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeBuildFailed,
//	    "image build failed",
//	    cause,
//	    map[string]interface{}{
//	        "cuda":   spec.CUDAVersion,
//	        "python": spec.PythonVersion,
//	    },
//	)
package errors
