package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dop251/goja"
	"github.com/mohitkumar/autopilot/util"
	"github.com/oliveagle/jsonpath"
)

// evaluateCondition decides a phase condition. A {$.path} expression is looked
// up in data and its truthiness decides; a missing path is false. Anything
// else runs as JavaScript with data and currentPhase bound, and is interrupted
// when ctx is done.
func evaluateCondition(ctx context.Context, expression string, data map[string]any, currentPhase string) (bool, error) {
	if path, ok := util.JsonPathExpression(expression); ok {
		value, err := jsonpath.JsonPathLookup(data, path)
		if err != nil {
			return false, nil
		}
		return truthy(value), nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("can not encode workflow data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("condition %q not evaluated: %w", expression, err)
	}
	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	if _, err := vm.RunString(fmt.Sprintf("var data = %s;\nvar $ = data;\n", encoded)); err != nil {
		return false, fmt.Errorf("error preparing condition scope %w", err)
	}
	if err := vm.Set("currentPhase", currentPhase); err != nil {
		return false, err
	}
	val, err := vm.RunString(expression)
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return false, fmt.Errorf("condition %q interrupted: %w", expression, ctx.Err())
	}
	if err != nil {
		return false, fmt.Errorf("error evaluating condition %q: %w", expression, err)
	}
	return val.ToBoolean(), nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
