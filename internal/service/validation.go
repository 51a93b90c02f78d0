package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里使用 json 字段名，和请求体保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldList 按出现顺序收集字段名并去重
type fieldList []string

func (l *fieldList) add(fields ...string) {
	for _, f := range fields {
		dup := false
		for _, existing := range *l {
			if existing == f {
				dup = true
				break
			}
		}
		if !dup {
			*l = append(*l, f)
		}
	}
}

// addStruct 运行 validate 标签，把失败字段转成 counts.easy 这样的路径
func (l *fieldList) addStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		if i := strings.IndexByte(ns, '['); i >= 0 {
			ns = ns[:i]
		}
		l.add(ns)
	}
	return nil
}
