package server

import (
	"fmt"

	"github.com/va6996/querytools/tools"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service carries protobuf Struct messages, so the JSON form of every
// call is a plain object:
//
//	Invoke     {"tool": "query_sql_db", "input": "SELECT 1", "async": false} -> {"output": "[(1,)]"}
//	ListTools  {} -> {"tools": [{"name": "...", "description": "..."}]}

// InvokeRequest is the decoded form of an Invoke message
type InvokeRequest struct {
	Tool  string
	Input string
	Async bool
}

// Proto encodes the request as a Struct
func (r *InvokeRequest) Proto() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"tool":  structpb.NewStringValue(r.Tool),
		"input": structpb.NewStringValue(r.Input),
	}
	if r.Async {
		fields["async"] = structpb.NewBoolValue(true)
	}
	return &structpb.Struct{Fields: fields}
}

// ParseInvokeRequest decodes an Invoke message. Unknown fields and fields
// of the wrong kind are rejected with tools.ErrInvalidInput.
func ParseInvokeRequest(msg *structpb.Struct) (*InvokeRequest, error) {
	req := &InvokeRequest{}
	for key, value := range msg.GetFields() {
		switch key {
		case "tool":
			s, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			req.Tool = s
		case "input":
			s, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			req.Input = s
		case "async":
			b, ok := value.GetKind().(*structpb.Value_BoolValue)
			if !ok {
				return nil, fmt.Errorf("%w: field %q must be a boolean", tools.ErrInvalidInput, key)
			}
			req.Async = b.BoolValue
		default:
			return nil, fmt.Errorf("%w: unknown field %q", tools.ErrInvalidInput, key)
		}
	}
	return req, nil
}

func stringField(key string, value *structpb.Value) (string, error) {
	s, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: field %q must be a string", tools.ErrInvalidInput, key)
	}
	return s.StringValue, nil
}

// NewInvokeResponse wraps a tool's output
func NewInvokeResponse(output string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"output": structpb.NewStringValue(output),
	}}
}

// OutputOf reads the output of an Invoke response
func OutputOf(msg *structpb.Struct) string {
	return msg.GetFields()["output"].GetStringValue()
}

// ToolInfo describes one registered tool
type ToolInfo struct {
	Name        string
	Description string
}

// NewListToolsResponse encodes infos in order
func NewListToolsResponse(infos []ToolInfo) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(infos))
	for _, info := range infos {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":        structpb.NewStringValue(info.Name),
			"description": structpb.NewStringValue(info.Description),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"tools": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// ToolsOf decodes a ListTools response
func ToolsOf(msg *structpb.Struct) []ToolInfo {
	var infos []ToolInfo
	for _, v := range msg.GetFields()["tools"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()
		infos = append(infos, ToolInfo{
			Name:        fields["name"].GetStringValue(),
			Description: fields["description"].GetStringValue(),
		})
	}
	return infos
}
