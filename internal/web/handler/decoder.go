package handler

import (
	"reflect"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once //nolint:gochecknoglobals

// RegisterDecoders teaches fiber's form and query parser the custom value types.
// Unparsable decimals decode to an invalid value and fail the body parser.
func RegisterDecoders() {
	registerOnce.Do(func() {
		fiber.SetParserDecoder(fiber.ParserConfig{
			IgnoreUnknownKeys: true,
			ZeroEmpty:         true,
			ParserType: []fiber.ParserType{
				{
					Customtype: decimal.Decimal{},
					Converter: func(value string) reflect.Value {
						d, err := decimal.NewFromString(value)
						if err != nil {
							return reflect.Value{}
						}

						return reflect.ValueOf(d)
					},
				},
			},
		})
	})
}
