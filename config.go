package dftl

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// overrides is the YAML-facing shape of a parameter file: every field is a
// pointer so "absent" and "zero" are distinguishable, the same idiom
// tinyrange-cc's site_config.go uses for its own optional overrides.
type overrides struct {
	SecSz     *uint64 `yaml:"sec_sz"`
	SecsPerPg *uint64 `yaml:"secs_per_pg"`
	PgsPerBlk *uint64 `yaml:"pgs_per_blk"`
	BlksPerPl *uint64 `yaml:"blks_per_pl"`
	PlsPerLun *uint64 `yaml:"pls_per_lun"`
	LunsPerCh *uint64 `yaml:"luns_per_ch"`
	Nchs      *uint64 `yaml:"nchs"`
	EntsPerPg *uint64 `yaml:"ents_per_pg"`

	PgRdLatNs  *int64 `yaml:"pg_rd_lat_ns"`
	PgWrLatNs  *int64 `yaml:"pg_wr_lat_ns"`
	BlkErLatNs *int64 `yaml:"blk_er_lat_ns"`

	GcThresPcent     *float64 `yaml:"gc_thres_pcent"`
	GcThresPcentHigh *float64 `yaml:"gc_thres_pcent_high"`
	EnableGcDelay    *bool    `yaml:"enable_gc_delay"`
}

func (o *overrides) apply(p *Params) {
	if o == nil {
		return
	}
	if o.SecSz != nil {
		p.SecSz = *o.SecSz
	}
	if o.SecsPerPg != nil {
		p.SecsPerPg = *o.SecsPerPg
	}
	if o.PgsPerBlk != nil {
		p.PgsPerBlk = *o.PgsPerBlk
	}
	if o.BlksPerPl != nil {
		p.BlksPerPl = *o.BlksPerPl
	}
	if o.PlsPerLun != nil {
		p.PlsPerLun = *o.PlsPerLun
	}
	if o.LunsPerCh != nil {
		p.LunsPerCh = *o.LunsPerCh
	}
	if o.Nchs != nil {
		p.Nchs = *o.Nchs
	}
	if o.EntsPerPg != nil {
		p.EntsPerPg = *o.EntsPerPg
	}
	if o.PgRdLatNs != nil {
		p.PgRdLat = time.Duration(*o.PgRdLatNs) * time.Nanosecond
	}
	if o.PgWrLatNs != nil {
		p.PgWrLat = time.Duration(*o.PgWrLatNs) * time.Nanosecond
	}
	if o.BlkErLatNs != nil {
		p.BlkErLat = time.Duration(*o.BlkErLatNs) * time.Nanosecond
	}
	if o.GcThresPcent != nil {
		p.GcThresPcent = *o.GcThresPcent
	}
	if o.GcThresPcentHigh != nil {
		p.GcThresPcentHigh = *o.GcThresPcentHigh
	}
	if o.EnableGcDelay != nil {
		p.EnableGcDelay = *o.EnableGcDelay
	}
}

// LoadParams starts from DefaultParams() and applies any overrides found in
// the YAML file at path. A missing file is not an error -- spec.md section
// 6 calls these "compile-time defaults"; this just lets a deployment tweak
// them without a rebuild, the way tinyrange-cc's site-config.yml tweaks its
// own compiled-in defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return Params{}, errors.Wrapf(err, "reading params file %q", path)
	}

	var ov overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return Params{}, errors.Wrapf(err, "parsing params file %q", path)
	}
	ov.apply(&p)
	p.Derive()
	return p, nil
}
