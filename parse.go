package skemaforge

import (
	"bytes"
	"context"
	"io"

	"github.com/reoring/skemaforge/i18n"
)

// ParseFrom is the primary entry point. It decodes the Source and delegates
// validation to the Schema. Decoding failures are reported as a parse_error
// issue and a context that is already done as a timeout issue.
func ParseFrom[T any](ctx context.Context, s Schema[T], src Source, opts ...ParseOpt) (T, error) {
	var zero T
	if s == nil {
		return zero, singleIssue(CodeParseError, "nil schema")
	}

	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	// propagate fail-fast intent via context for schema implementations
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	if opt.RejectDuplicateKeys {
		if js, ok := src.(*jsonSource); ok {
			data, err := io.ReadAll(js.r)
			if err != nil {
				return zero, toIssues(err)
			}
			if iss, err := DuplicateKeys(data); err == nil && len(iss) > 0 {
				return zero, iss
			}
			src = &jsonSource{r: bytes.NewReader(data), mode: js.mode}
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, ctxIssues(err)
	}
	v, err := src.Decode()
	if err != nil {
		return zero, toIssues(err)
	}
	if err := ctx.Err(); err != nil {
		return zero, ctxIssues(err)
	}
	return s.Parse(ctx, v)
}

// ctxIssues reports a finished context as a timeout issue at the root.
func ctxIssues(err error) Issues {
	return AppendIssues(nil, Issue{
		Path:    "/",
		Code:    CodeTimeout,
		Message: i18n.T(CodeTimeout, nil),
		Hint:    err.Error(),
		Cause:   err,
	})
}

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
}

// StreamParse validates JSON read from r. When MaxBytes is set it enforces
// the size cap up front.
func StreamParse[T any](ctx context.Context, s Schema[T], r io.Reader, opts ...ParseOpt) (T, error) {
	if len(opts) > 0 && opts[len(opts)-1].MaxBytes > 0 {
		lr := io.LimitReader(r, opts[len(opts)-1].MaxBytes+1)
		data, err := io.ReadAll(lr)
		if err != nil {
			var zero T
			return zero, singleIssue(CodeParseError, err.Error())
		}
		if int64(len(data)) > opts[len(opts)-1].MaxBytes {
			var zero T
			return zero, singleIssue(CodeTruncated, "max bytes exceeded")
		}
		return ParseFrom[T](ctx, s, JSONBytes(data), opts...)
	}
	return ParseFrom[T](ctx, s, JSONReader(r), opts...)
}
