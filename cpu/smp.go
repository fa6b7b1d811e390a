package cpu

import (
	"sync"

	"nexaos/kerrors"
)

// SMP owns the set of logical CPUs and models IPI delivery between them.
type SMP struct {
	mu   sync.RWMutex
	cpus []*PerCPU
}

// NewSMP creates an SMP topology with the given number of logical CPUs,
// CPU 0 being the bootstrap processor.
func NewSMP(numCPUs int) *SMP {
	s := &SMP{cpus: make([]*PerCPU, numCPUs)}
	for i := range s.cpus {
		s.cpus[i] = NewPerCPU(i)
	}
	return s
}

// NumCPUs returns the number of logical CPUs in the topology.
func (s *SMP) NumCPUs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cpus)
}

// CPU returns the PerCPU record for the given logical CPU id.
func (s *SMP) CPU(id int) (*PerCPU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.cpus) {
		return nil, &kerrors.KernelError{Op: "cpu-lookup", Subsystem: "smp", Kind: kerrors.KindInvalidArgument, Detail: "cpu id out of range"}
	}
	return s.cpus[id], nil
}

// SendRescheduleIPI delivers a reschedule request to the target CPU. The
// remote CPU observes the request on its next interrupt-exit path.
func (s *SMP) SendRescheduleIPI(target int) error {
	c, err := s.CPU(target)
	if err != nil {
		return err
	}
	c.RequestReschedule()
	return nil
}

// SendTLBFlushIPI delivers a TLB-flush request to the target CPU.
func (s *SMP) SendTLBFlushIPI(target int) error {
	c, err := s.CPU(target)
	if err != nil {
		return err
	}
	c.RequestTLBFlush()
	return nil
}

// Broadcast delivers a reschedule IPI to every CPU except the sender.
func (s *SMP) Broadcast(from int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cpus {
		if c.ID != from {
			c.RequestReschedule()
		}
	}
}
