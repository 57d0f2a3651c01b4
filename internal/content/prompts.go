package content

import (
	"fmt"
	"strings"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// sectionGuidelines maps every section to the structural requirements fed to
// the provider. Adding a section without extending this table is a
// compile-visible gap in buildPrompt's exhaustive lookup.
var sectionGuidelines = map[domain.Section]string{
	domain.SectionBab1: `Sub-bab yang harus ada:
1.1 Latar Belakang, 1.2 Rumusan Masalah, 1.3 Tujuan Penelitian,
1.4 Manfaat Penelitian, 1.5 Batasan Masalah, 1.6 Sistematika Penulisan.
Gunakan referensi ilmiah minimal 5-7 sumber dalam latar belakang.`,

	domain.SectionBab2: `Sub-bab yang harus ada:
2.1 Landasan Teori, 2.2 Penelitian Terdahulu (min 5 penelitian relevan),
2.3 Kerangka Pemikiran.
Setiap konsep harus didukung dengan kutipan (Author, Year).`,

	domain.SectionBab3: `Sub-bab yang harus ada:
3.1 Desain Penelitian, 3.2 Lokasi dan Waktu Penelitian, 3.3 Populasi dan
Sampel, 3.4 Metode Pengumpulan Data, 3.5 Instrumen Penelitian,
3.6 Teknik Analisis Data, 3.7 Tahapan Penelitian.`,

	domain.SectionBab4: `Sub-bab yang harus ada:
4.1 Hasil Penelitian, 4.2 Pembahasan, 4.3 Analisis Temuan.
Sertakan contoh data konkret dan analisis mendalam.`,

	domain.SectionBab5: `Sub-bab yang harus ada:
5.1 Kesimpulan, 5.2 Saran.
Kesimpulan harus menjawab rumusan masalah dan tujuan penelitian di Bab 1.`,

	domain.SectionDaftarPustaka: `Format: APA 7th Edition, minimal 20-30 referensi,
urut alfabetis berdasarkan nama penulis. Semua sumber yang dikutip di bab 1-5
harus tercantum.`,
}

const (
	titleSystemPrompt = `Anda adalah asisten akademik yang membantu mahasiswa Indonesia menghasilkan judul skripsi berkualitas tinggi.`

	sectionSystemPrompt = `Anda adalah asisten penulisan skripsi akademik tingkat sarjana di Indonesia.
Gunakan bahasa Indonesia formal dan akademis, sertakan referensi ilmiah dalam
format (Penulis, Tahun), dan buat konten original minimal 2000 kata per bab
(kecuali Bab 5 dan Daftar Pustaka).`

	revisionSystemPrompt = `Anda adalah asisten revisi skripsi akademik.
Revisi konten berdasarkan feedback pengguna sambil mempertahankan kualitas
akademis. JANGAN menghapus referensi yang sudah ada, pertahankan struktur dan
format, dan tetap gunakan bahasa formal.`
)

// buildPrompt shapes the system/user prompt pair and token budget for a
// request kind.
func buildPrompt(req Request) (system, user string, maxTokens int64, err error) {
	switch req.Kind {
	case KindTitleIdeation:
		var b strings.Builder
		fmt.Fprintf(&b, "Buatlah 10 judul skripsi yang menarik dan relevan untuk mahasiswa dengan data berikut:\n\n")
		fmt.Fprintf(&b, "Fakultas: %s\nJurusan: %s\n", req.Lead.Fakultas, req.Lead.Jurusan)
		if req.Lead.Peminatan != "" {
			fmt.Fprintf(&b, "Peminatan: %s\n", req.Lead.Peminatan)
		}
		b.WriteString("\nJudul harus spesifik, menggunakan metodologi penelitian yang jelas, dan dapat diselesaikan dalam 4-6 bulan.\n")
		b.WriteString("Format output: 10 judul, satu judul per baris, tanpa numbering.")
		return titleSystemPrompt, b.String(), 800, nil

	case KindSectionGeneration:
		guideline, ok := sectionGuidelines[req.Section]
		if !ok {
			return "", "", 0, &Error{Code: CodeProvider, Message: fmt.Sprintf("unknown section %q", req.Section)}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Buatlah konten untuk %s dengan detail berikut:\n\n", req.Section.Label())
		fmt.Fprintf(&b, "Judul Skripsi: %s\nFakultas: %s\nJurusan: %s\n", req.Title, req.Lead.Fakultas, req.Lead.Jurusan)
		if req.Lead.Peminatan != "" {
			fmt.Fprintf(&b, "Peminatan: %s\n", req.Lead.Peminatan)
		}
		fmt.Fprintf(&b, "\nPEDOMAN BAB:\n%s\n", guideline)
		if req.PriorContext != "" {
			fmt.Fprintf(&b, "\nKONTEKS BAB SEBELUMNYA:\n%s\n\nPastikan bab ini konsisten dengan bab sebelumnya.\n", req.PriorContext)
		}
		b.WriteString("\nTulis konten bab lengkap sekarang:")
		tokens := int64(4000)
		if req.Section == domain.SectionDaftarPustaka {
			tokens = 2000
		}
		return sectionSystemPrompt, b.String(), tokens, nil

	case KindSectionRevision:
		var b strings.Builder
		fmt.Fprintf(&b, "Revisi konten %s berikut berdasarkan feedback pengguna.\n\n", strings.ToUpper(string(req.Section)))
		fmt.Fprintf(&b, "KONTEN SAAT INI:\n%s\n", req.CurrentContent)
		if len(req.PreserveRefs) > 0 {
			fmt.Fprintf(&b, "\nREFERENSI YANG HARUS DIPERTAHANKAN:\n%s\n", strings.Join(req.PreserveRefs, "\n"))
		}
		fmt.Fprintf(&b, "\nFEEDBACK PENGGUNA:\n%s\n", req.Feedback)
		b.WriteString("\nFokus pada perbaikan yang diminta, jangan ubah bagian yang tidak terkait, dan pertahankan semua referensi ilmiah.\nTulis konten yang sudah direvisi:")
		return revisionSystemPrompt, b.String(), 4000, nil

	default:
		return "", "", 0, &Error{Code: CodeProvider, Message: fmt.Sprintf("unknown request kind %q", req.Kind)}
	}
}
