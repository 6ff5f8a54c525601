//go:build linux && cgo

package modules

/*
#ifndef _GNU_SOURCE
#define _GNU_SOURCE
#endif
#include <link.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

#define MODULE_PATH_MAX 1024

typedef struct {
	char path[MODULE_PATH_MAX];
	uintptr_t load_address;
} linker_module;

typedef struct {
	linker_module *items;
	size_t len;
	size_t cap;
} linker_modules;

static int collect_module(struct dl_phdr_info *info, size_t size, void *data) {
	linker_modules *mods = (linker_modules *)data;
	if (info->dlpi_name == NULL || info->dlpi_name[0] != '/')
		return 0;
	if (mods->len == mods->cap) {
		size_t cap = mods->cap == 0 ? 32 : mods->cap * 2;
		linker_module *items = realloc(mods->items, cap * sizeof(linker_module));
		if (items == NULL)
			return 1;
		mods->items = items;
		mods->cap = cap;
	}
	linker_module *m = &mods->items[mods->len++];
	strncpy(m->path, info->dlpi_name, MODULE_PATH_MAX - 1);
	m->path[MODULE_PATH_MAX - 1] = '\0';
	m->load_address = (uintptr_t)info->dlpi_addr;
	return 0;
}

static linker_modules iterate_modules(void) {
	linker_modules mods = {0};
	dl_iterate_phdr(collect_module, &mods);
	return mods;
}
*/
import "C"

import (
	"log/slog"
	"unsafe"
)

func linkerModules() ([]RuntimeModule, error) {
	mods := C.iterate_modules()
	defer C.free(unsafe.Pointer(mods.items))

	n := int(mods.len)
	modules := make([]RuntimeModule, 0, n)
	if n == 0 {
		return modules, nil
	}
	for _, item := range unsafe.Slice(mods.items, n) {
		m := RuntimeModule{
			Path:        C.GoString(&item.path[0]),
			LoadAddress: uintptr(item.load_address),
		}
		slog.Debug("Linker reported module", "path", m.Path, "load_address", uint64(m.LoadAddress))
		modules = append(modules, m)
	}
	return modules, nil
}
