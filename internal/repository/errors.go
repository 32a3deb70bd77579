package repository

import "fmt"

var ErrNotFound = fmt.Errorf("not found")
