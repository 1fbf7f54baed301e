package cli

import (
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kvdoc/internal/codec"
	"github.com/roach88/kvdoc/internal/codec/datetime"
	"github.com/roach88/kvdoc/internal/ir"
)

// EncodedResult is the output of codec encode.
type EncodedResult struct {
	Type    string `json:"type" yaml:"type"`
	Encoded any    `json:"encoded" yaml:"encoded"`
}

func (r EncodedResult) String() string {
	return canonicalText(r.Encoded)
}

// DecodedResult is the output of codec decode.
type DecodedResult struct {
	Type   string         `json:"type" yaml:"type"`
	Fields map[string]any `json:"fields" yaml:"fields"`
	Text   string         `json:"text" yaml:"text"`
}

func (r DecodedResult) String() string {
	return r.Text
}

// NewCodecCommand creates the codec command group.
func NewCodecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codec",
		Short: "Convert typed values to and from their stored form",
		Long: `Convert IPv4 addresses, epoch seconds, ISO 8601 UTC times and local
date/times to and from the JSON form they are stored in.`,
	}
	cmd.AddCommand(newEncodeCommand(rootOpts))
	cmd.AddCommand(newDecodeCommand(rootOpts))
	return cmd
}

func newEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var asArray bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a typed value",
	}

	ipCmd := &cobra.Command{
		Use:     "ip ADDR",
		Short:   "Encode an IPv4 address",
		Example: "  kvdoc codec encode ip 192.168.1.10 --array",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			addr, err := netip.ParseAddr(args[0])
			if err != nil || !addr.Is4() {
				return f.Usage(ErrCodeInvalidInput, fmt.Sprintf("not an IPv4 address: %q", args[0]))
			}

			encode := codec.EncodeIPString
			if asArray {
				encode = codec.EncodeIPArray
			}
			v, err := encode(addr)
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(EncodedResult{Type: "ip", Encoded: ir.ToAny(v)})
		},
	}
	ipCmd.Flags().BoolVar(&asArray, "array", false, "encode as an array of octets")

	epochCmd := &cobra.Command{
		Use:   "epoch SECONDS",
		Short: "Encode seconds since the Unix epoch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			secs, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return f.Usage(ErrCodeInvalidInput, fmt.Sprintf("invalid seconds %q", args[0]))
			}
			return f.Success(EncodedResult{Type: "epoch", Encoded: ir.ToAny(codec.EncodeEpochSeconds(secs))})
		},
	}

	timeCmd := &cobra.Command{
		Use:     "time RFC3339",
		Short:   "Encode a time as ISO 8601 UTC text",
		Example: "  kvdoc codec encode time 2024-03-01T09:30:00+01:00",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			t, err := time.Parse(time.RFC3339, args[0])
			if err != nil {
				return f.Usage(ErrCodeInvalidInput, fmt.Sprintf("invalid RFC 3339 time %q", args[0]))
			}
			v, err := datetime.EncodeText(t, datetime.ISO8601{})
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(EncodedResult{Type: "time", Encoded: ir.ToAny(v)})
		},
	}

	localCmd := &cobra.Command{
		Use:   "local SECONDS OFFSET",
		Short: "Encode a local date/time as epoch seconds plus a UTC offset in minutes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			secs, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return f.Usage(ErrCodeInvalidInput, fmt.Sprintf("invalid seconds %q", args[0]))
			}
			offset, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return f.Usage(ErrCodeInvalidInput, fmt.Sprintf("invalid offset %q: minutes as a 32-bit integer", args[1]))
			}

			v := datetime.EncodeLocal(datetime.LocalDateTime{UTC: time.Unix(secs, 0).UTC(), OffsetMinutes: int(offset)})
			return f.Success(EncodedResult{Type: "local", Encoded: ir.ToAny(v)})
		},
	}

	cmd.AddCommand(ipCmd, epochCmd, timeCmd, localCmd)
	return cmd
}

// decoder turns a stored value into result fields and display text.
type decoder func(src ir.IRValue) (map[string]any, string, error)

var decoders = map[string]decoder{
	"ip": func(src ir.IRValue) (map[string]any, string, error) {
		addr, err := codec.DecodeIP(src)
		if err != nil {
			return nil, "", err
		}
		return map[string]any{"address": addr.String()}, addr.String(), nil
	},
	"epoch": func(src ir.IRValue) (map[string]any, string, error) {
		secs, err := codec.DecodeEpochSeconds(src)
		if err != nil {
			return nil, "", err
		}
		text := time.Unix(secs, 0).UTC().Format(time.RFC3339)
		return map[string]any{"seconds": secs}, text, nil
	},
	"time": func(src ir.IRValue) (map[string]any, string, error) {
		t, err := datetime.DecodeText(src, datetime.ISO8601{})
		if err != nil {
			return nil, "", err
		}
		return map[string]any{"seconds": t.Unix()}, t.Format(time.RFC3339), nil
	},
	"local": func(src ir.IRValue) (map[string]any, string, error) {
		l, err := datetime.DecodeLocal(src)
		if err != nil {
			return nil, "", err
		}
		fields := map[string]any{
			datetime.FieldEpochSeconds:  l.UTC.Unix(),
			datetime.FieldOffsetMinutes: l.OffsetMinutes,
		}
		return fields, l.Local().Format(time.RFC3339), nil
	},
}

func newDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a stored JSON value",
	}

	for _, name := range []string{"ip", "epoch", "time", "local"} {
		name := name
		decode := decoders[name]
		cmd.AddCommand(&cobra.Command{
			Use:   name + " JSON",
			Short: fmt.Sprintf("Decode a stored %s value", name),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f := rootOpts.formatter(cmd)

				src, err := parseValue(f, "value", args[0])
				if err != nil {
					return err
				}
				fields, text, err := decode(src)
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(DecodedResult{Type: name, Fields: fields, Text: text})
			},
		})
	}
	return cmd
}
